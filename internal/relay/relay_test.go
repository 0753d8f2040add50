package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/events"
	"github.com/electricworld/electricworld-core/internal/infrastructure/influxdb"
	"github.com/electricworld/electricworld-core/internal/infrastructure/mqtt"
	"github.com/electricworld/electricworld-core/internal/protocol"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// MockMQTTClient records publishes.
type MockMQTTClient struct {
	published []published
	err       error
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, published{topic, payload, qos, retained})
	return nil
}

// MockWriter records telemetry writes.
type MockWriter struct {
	events   []string
	devices  []influxdb.DeviceSample
	networks []influxdb.NetworkSample
}

func (m *MockWriter) WriteEvent(kind, _ string, _ time.Time) { m.events = append(m.events, kind) }

func (m *MockWriter) WriteDeviceSample(s influxdb.DeviceSample, _ time.Time) {
	m.devices = append(m.devices, s)
}

func (m *MockWriter) WriteNetworkSample(s influxdb.NetworkSample, _ time.Time) {
	m.networks = append(m.networks, s)
}

var at = time.UnixMilli(1700000000123)

func testDevice() device.Device {
	return device.Device{
		ID:               "gen-1",
		Type:             device.TypeGenerator,
		State:            device.StateOnline,
		OwnerID:          "player_1",
		PowerOutput:      80,
		HealthPercentage: 90,
	}
}

func TestMQTTSink_DeviceCreated(t *testing.T) {
	client := &MockMQTTClient{}
	sink := NewMQTTSink(client, mqtt.NewTopics("ew"), 1)

	err := sink.Handle(context.Background(), events.Record{
		Kind:     string(protocol.KindDeviceCreated),
		PlayerID: "player_1",
		DeviceID: "gen-1",
		Payload:  testDevice(),
		At:       at,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(client.published) != 2 {
		t.Fatalf("published %d messages, want event + state", len(client.published))
	}

	event := client.published[0]
	if event.topic != "ew/event/device/created" || event.retained || event.qos != 1 {
		t.Errorf("event publish = %+v", event)
	}
	var msg Message
	if err := json.Unmarshal(event.payload, &msg); err != nil {
		t.Fatalf("event body: %v", err)
	}
	if msg.Kind != "device/created" || msg.PlayerID != "player_1" || msg.Timestamp != 1700000000123 {
		t.Errorf("message = %+v", msg)
	}

	state := client.published[1]
	if state.topic != "ew/device/gen-1/state" || !state.retained {
		t.Errorf("state publish = %+v", state)
	}
	var dev device.Device
	if err := json.Unmarshal(state.payload, &dev); err != nil || dev.ID != "gen-1" {
		t.Errorf("state body = %s (err %v)", state.payload, err)
	}
}

func TestMQTTSink_DeviceDeletedClearsState(t *testing.T) {
	client := &MockMQTTClient{}
	sink := NewMQTTSink(client, mqtt.NewTopics("ew"), 0)

	err := sink.Handle(context.Background(), events.Record{
		Kind:     string(protocol.KindDeviceDeleted),
		DeviceID: "gen-1",
		Payload:  protocol.DeviceDeleted{DeviceID: "gen-1", OwnerID: "player_1"},
		At:       at,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(client.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(client.published))
	}
	cleared := client.published[1]
	if cleared.topic != "ew/device/gen-1/state" || !cleared.retained || len(cleared.payload) != 0 {
		t.Errorf("clear publish = %+v", cleared)
	}
}

func TestMQTTSink_EventsWithoutDeviceState(t *testing.T) {
	tests := []struct {
		name string
		rec  events.Record
	}{
		{"chat", events.Record{Kind: "chat/received", PlayerID: "player_1", Payload: protocol.ChatReceived{Message: "hi"}}},
		{"power link", events.Record{Kind: "power/connected", DeviceID: "a", Payload: protocol.PowerConnection{FromDeviceID: "a", ToDeviceID: "b"}}},
		{"no payload", events.Record{Kind: "player/left", PlayerID: "player_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockMQTTClient{}
			if err := NewMQTTSink(client, mqtt.NewTopics(""), 1).Handle(context.Background(), tt.rec); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(client.published) != 1 {
				t.Fatalf("published %d messages, want 1", len(client.published))
			}
			if want := "electricworld/event/" + tt.rec.Kind; client.published[0].topic != want {
				t.Errorf("topic = %q, want %q", client.published[0].topic, want)
			}
		})
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	client := &MockMQTTClient{err: mqtt.ErrNotConnected}
	err := NewMQTTSink(client, mqtt.NewTopics("ew"), 1).Handle(context.Background(), events.Record{Kind: "chat/received"})
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Handle() error = %v, want ErrNotConnected", err)
	}
}

func TestTelemetry(t *testing.T) {
	store := device.NewStore()
	for _, d := range []device.Draft{
		{ID: "gen-1", Type: device.TypeGenerator},
		{ID: "house", Type: device.TypeConsumer},
	} {
		if _, err := store.Create(d, "player_1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := store.Connect("gen-1", "house", "player_1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	dev, _ := store.Get("gen-1")

	writer := &MockWriter{}
	sink := NewTelemetry(writer, store)
	if err := sink.Handle(context.Background(), events.Record{
		Kind: "device/updated", PlayerID: "player_1", DeviceID: "gen-1", Payload: dev, At: at,
	}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(writer.events) != 1 || writer.events[0] != "device/updated" {
		t.Errorf("events = %v", writer.events)
	}
	if len(writer.devices) != 1 || writer.devices[0].DeviceID != "gen-1" || writer.devices[0].DeviceType != "generator" {
		t.Errorf("device samples = %+v", writer.devices)
	}
	if len(writer.networks) != 1 || writer.networks[0].NetworkID != "net_gen-1" || writer.networks[0].Devices != 2 {
		t.Errorf("network samples = %+v", writer.networks)
	}
}

func TestTelemetry_EventOnly(t *testing.T) {
	writer := &MockWriter{}
	sink := NewTelemetry(writer, nil)

	if err := sink.Handle(context.Background(), events.Record{Kind: "chat/received", At: at}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(writer.events) != 1 || len(writer.devices) != 0 || len(writer.networks) != 0 {
		t.Errorf("writes = %v / %v / %v", writer.events, writer.devices, writer.networks)
	}
	if sink.Name() != "telemetry" {
		t.Errorf("Name() = %q", sink.Name())
	}
}

func TestMQTTSink_DeviceUpdatedRefreshesRetainedState(t *testing.T) {
	client := &MockMQTTClient{}
	sink := NewMQTTSink(client, mqtt.NewTopics("ew"), 1)

	neighbour := testDevice()
	neighbour.InputConnections = nil
	err := sink.Handle(context.Background(), events.Record{
		Kind:     string(protocol.KindDeviceUpdated),
		PlayerID: "player_2",
		DeviceID: neighbour.ID,
		Payload:  neighbour,
		At:       at,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(client.published) != 2 {
		t.Fatalf("published %d messages, want event and state", len(client.published))
	}
	state := client.published[1]
	if state.topic != "ew/device/gen-1/state" || !state.retained {
		t.Errorf("state publish = %s retained=%v", state.topic, state.retained)
	}
}
