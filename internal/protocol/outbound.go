package protocol

// Pong answers a test/ping.
type Pong struct {
	OriginalTimestamp int64  `json:"originalTimestamp"`
	ServerTimestamp   int64  `json:"serverTimestamp"`
	Message           string `json:"message"`
	ClientMessage     string `json:"clientMessage"`
}

// PongMessage is the fixed text carried by every pong.
const PongMessage = "服务端pong响应"

// PlayerJoined confirms a join to the joining connection.
type PlayerJoined struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar,omitempty"`
}

// PlayerLeft announces that a player's connection went away.
type PlayerLeft struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason,omitempty"`
}

// LeaveReasonDisconnected is the reason sent when the transport drops.
const LeaveReasonDisconnected = "disconnected"

// DeviceDeleted announces a removed device.
type DeviceDeleted struct {
	DeviceID string `json:"deviceId"`
	OwnerID  string `json:"ownerId"`
}

// ChatReceived is a relayed chat line.
type ChatReceived struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Type       string `json:"type"`
}

// ChatTypePublic marks chat relayed to every player.
const ChatTypePublic = "public"

// PowerConnection announces a link change between two devices.
type PowerConnection struct {
	FromDeviceID   string `json:"fromDeviceId"`
	ToDeviceID     string `json:"toDeviceId"`
	ConnectionType string `json:"connectionType,omitempty"`
	PlayerID       string `json:"playerId"`
}

// MaintenanceEvent announces a maintenance transition.
type MaintenanceEvent struct {
	DeviceID string `json:"deviceId"`
	PlayerID string `json:"playerId"`
}

// SystemError reports a failed request to its sender.
type SystemError struct {
	Code    ErrorCode `json:"code"`
	Reason  Reason    `json:"reason"`
	Message string    `json:"message"`
}
