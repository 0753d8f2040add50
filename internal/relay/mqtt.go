package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/events"
	"github.com/electricworld/electricworld-core/internal/infrastructure/mqtt"
	"github.com/electricworld/electricworld-core/internal/protocol"
)

// MQTTClient is the subset of the MQTT client the relay needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Message is the body published on an event topic.
type Message struct {
	Kind      string          `json:"kind"`
	PlayerID  string          `json:"playerId,omitempty"`
	DeviceID  string          `json:"deviceId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// MQTTSink publishes event records to MQTT.
type MQTTSink struct {
	client MQTTClient
	topics mqtt.Topics
	qos    byte
}

// NewMQTTSink creates an MQTT relay publishing under topics.
func NewMQTTSink(client MQTTClient, topics mqtt.Topics, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topics: topics, qos: qos}
}

// Name implements events.Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Handle implements events.Sink.
func (s *MQTTSink) Handle(_ context.Context, rec events.Record) error {
	msg := Message{
		Kind:      rec.Kind,
		PlayerID:  rec.PlayerID,
		DeviceID:  rec.DeviceID,
		Timestamp: rec.At.UnixMilli(),
	}
	if rec.Payload != nil {
		raw, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("marshalling %s payload: %w", rec.Kind, err)
		}
		msg.Payload = raw
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling %s message: %w", rec.Kind, err)
	}
	if err := s.client.Publish(s.topics.Event(rec.Kind), body, s.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", rec.Kind, err)
	}

	return s.publishState(rec, msg.Payload)
}

// publishState keeps the retained device state topic current. A deleted
// device's retained message is cleared with an empty payload.
func (s *MQTTSink) publishState(rec events.Record, payload json.RawMessage) error {
	if rec.DeviceID == "" {
		return nil
	}

	var body []byte
	switch protocol.Kind(rec.Kind) {
	case protocol.KindDeviceDeleted:
		body = []byte{}
	default:
		if _, ok := rec.Payload.(device.Device); !ok {
			return nil
		}
		body = payload
	}

	if err := s.client.Publish(s.topics.DeviceState(rec.DeviceID), body, s.qos, true); err != nil {
		return fmt.Errorf("publishing state of %s: %w", rec.DeviceID, err)
	}
	return nil
}
