package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementDeviceHealth = "device_health"
	MeasurementPowerNetwork = "power_network"
	MeasurementGameEvents   = "game_events"
)

// DeviceSample is the state of one device at a point in time.
type DeviceSample struct {
	DeviceID         string
	DeviceType       string
	State            string
	HealthPercentage float64
	PowerOutput      float64
	PowerInput       float64
}

// NetworkSample is the aggregate state of one power network.
type NetworkSample struct {
	NetworkID   string
	Devices     int
	Generation  float64
	Consumption float64
	Efficiency  float64
	Stable      bool
}

// WriteDeviceSample records a device's health and power.
func (c *Client) WriteDeviceSample(s DeviceSample, at time.Time) {
	c.writePoint(deviceSamplePoint(s, at))
}

// WriteNetworkSample records a network's aggregate power balance.
func (c *Client) WriteNetworkSample(s NetworkSample, at time.Time) {
	c.writePoint(networkSamplePoint(s, at))
}

// WriteEvent records one applied game event. playerID may be empty.
func (c *Client) WriteEvent(kind, playerID string, at time.Time) {
	c.writePoint(eventPoint(kind, playerID, at))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func deviceSamplePoint(s DeviceSample, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementDeviceHealth,
		map[string]string{
			"device_id":   s.DeviceID,
			"device_type": s.DeviceType,
			"state":       s.State,
		},
		map[string]interface{}{
			"health_percentage": s.HealthPercentage,
			"power_output":      s.PowerOutput,
			"power_input":       s.PowerInput,
		},
		at,
	)
}

func networkSamplePoint(s NetworkSample, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementPowerNetwork,
		map[string]string{
			"network_id": s.NetworkID,
		},
		map[string]interface{}{
			"devices":     s.Devices,
			"generation":  s.Generation,
			"consumption": s.Consumption,
			"efficiency":  s.Efficiency,
			"stable":      s.Stable,
		},
		at,
	)
}

func eventPoint(kind, playerID string, at time.Time) *write.Point {
	tags := map[string]string{"kind": kind}
	if playerID != "" {
		tags["player_id"] = playerID
	}
	return write.NewPoint(MeasurementGameEvents, tags, map[string]interface{}{"count": 1}, at)
}
