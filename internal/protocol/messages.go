package protocol

import (
	"github.com/electricworld/electricworld-core/internal/device"
)

// Message is an inbound client request. The set of implementations is
// closed; handlers switch on the concrete type.
type Message interface {
	Kind() Kind
	validate() error
}

// Ping asks the server to echo a pong.
type Ping struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// Join names the sender's player.
type Join struct {
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar,omitempty"`
}

// CreateDevice places a new device owned by the sender.
type CreateDevice struct {
	device.Draft
}

// UpdateDevice overwrites fields of an existing device.
type UpdateDevice struct {
	DeviceID string `json:"deviceId"`
	device.Patch
}

// DeleteDevice removes a device.
type DeleteDevice struct {
	DeviceID string `json:"deviceId"`
}

// ChatSend relays a chat line to every player.
type ChatSend struct {
	Message string `json:"message"`
}

// PowerConnect links two devices.
type PowerConnect struct {
	FromDeviceID   string `json:"fromDeviceId"`
	ToDeviceID     string `json:"toDeviceId"`
	ConnectionType string `json:"connectionType,omitempty"`
}

// PowerDisconnect unlinks two devices.
type PowerDisconnect struct {
	FromDeviceID string `json:"fromDeviceId"`
	ToDeviceID   string `json:"toDeviceId"`
}

// MaintenanceStart puts a device into maintenance.
type MaintenanceStart struct {
	DeviceID string `json:"deviceId"`
}

// MaintenanceComplete finishes maintenance on a device.
type MaintenanceComplete struct {
	DeviceID string `json:"deviceId"`
}

// Connection types accepted by power/connect.
const (
	ConnectionTypePower = "power"
	ConnectionTypeData  = "data"
)

func (Ping) Kind() Kind { return KindTestPing }
func (Join) Kind() Kind { return KindPlayerJoin }
func (CreateDevice) Kind() Kind { return KindDeviceCreate }
func (UpdateDevice) Kind() Kind { return KindDeviceUpdate }
func (DeleteDevice) Kind() Kind { return KindDeviceDelete }
func (ChatSend) Kind() Kind { return KindChatSend }
func (PowerConnect) Kind() Kind { return KindPowerConnect }
func (PowerDisconnect) Kind() Kind { return KindPowerDisconnect }
func (MaintenanceStart) Kind() Kind { return KindMaintenanceStart }
func (MaintenanceComplete) Kind() Kind { return KindMaintenanceComplete }

func (Ping) validate() error { return nil }
func (Join) validate() error { return nil }

func (m CreateDevice) validate() error {
	if m.ID == "" {
		return invalidPayload(m.Kind(), "deviceId is required")
	}
	if m.Type == "" {
		return invalidPayload(m.Kind(), "deviceType is required")
	}
	return nil
}

func (m UpdateDevice) validate() error {
	if m.DeviceID == "" {
		return invalidPayload(m.Kind(), "deviceId is required")
	}
	return nil
}

func (m DeleteDevice) validate() error {
	return requireDeviceID(m.Kind(), m.DeviceID)
}

func (m ChatSend) validate() error {
	if m.Message == "" {
		return invalidPayload(m.Kind(), "message is required")
	}
	return nil
}

func (m PowerConnect) validate() error {
	if m.FromDeviceID == "" || m.ToDeviceID == "" {
		return invalidPayload(m.Kind(), "fromDeviceId and toDeviceId are required")
	}
	switch m.ConnectionType {
	case "", ConnectionTypePower, ConnectionTypeData:
		return nil
	default:
		return invalidPayload(m.Kind(), "connectionType %q is not power or data", m.ConnectionType)
	}
}

func (m PowerDisconnect) validate() error {
	if m.FromDeviceID == "" || m.ToDeviceID == "" {
		return invalidPayload(m.Kind(), "fromDeviceId and toDeviceId are required")
	}
	return nil
}

func (m MaintenanceStart) validate() error {
	return requireDeviceID(m.Kind(), m.DeviceID)
}

func (m MaintenanceComplete) validate() error {
	return requireDeviceID(m.Kind(), m.DeviceID)
}

func requireDeviceID(kind Kind, id string) error {
	if id == "" {
		return invalidPayload(kind, "deviceId is required")
	}
	return nil
}
