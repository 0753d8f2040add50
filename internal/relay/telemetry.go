package relay

import (
	"context"
	"time"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/events"
	"github.com/electricworld/electricworld-core/internal/infrastructure/influxdb"
)

// TelemetryWriter is the subset of the InfluxDB client the relay needs.
type TelemetryWriter interface {
	WriteEvent(kind, playerID string, at time.Time)
	WriteDeviceSample(s influxdb.DeviceSample, at time.Time)
	WriteNetworkSample(s influxdb.NetworkSample, at time.Time)
}

// NetworkSource resolves the power network around a device.
type NetworkSource interface {
	NetworkOf(deviceID string) (device.PowerNetwork, bool)
}

// Telemetry writes event records as time-series points.
type Telemetry struct {
	writer   TelemetryWriter
	networks NetworkSource
}

// NewTelemetry creates a telemetry sink. networks may be nil, in which case
// network samples are not written.
func NewTelemetry(writer TelemetryWriter, networks NetworkSource) *Telemetry {
	return &Telemetry{writer: writer, networks: networks}
}

// Name implements events.Sink.
func (t *Telemetry) Name() string { return "telemetry" }

// Handle implements events.Sink. Writes are buffered by the client and
// never fail synchronously.
func (t *Telemetry) Handle(_ context.Context, rec events.Record) error {
	t.writer.WriteEvent(rec.Kind, rec.PlayerID, rec.At)

	if dev, ok := rec.Payload.(device.Device); ok {
		t.writer.WriteDeviceSample(influxdb.DeviceSample{
			DeviceID:         dev.ID,
			DeviceType:       string(dev.Type),
			State:            string(dev.State),
			HealthPercentage: dev.HealthPercentage,
			PowerOutput:      dev.PowerOutput,
			PowerInput:       dev.PowerInput,
		}, rec.At)
	}

	if t.networks == nil || rec.DeviceID == "" {
		return nil
	}
	if net, ok := t.networks.NetworkOf(rec.DeviceID); ok {
		t.writer.WriteNetworkSample(influxdb.NetworkSample{
			NetworkID:   net.ID,
			Devices:     len(net.ConnectedDevices),
			Generation:  net.TotalPowerGeneration,
			Consumption: net.TotalPowerConsumption,
			Efficiency:  net.NetworkEfficiency,
			Stable:      net.IsStable,
		}, rec.At)
	}
	return nil
}
