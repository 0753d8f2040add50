package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the JSON frame carried over the WebSocket.
type Envelope struct {
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// decoders maps every client-to-server kind to a constructor for its
// payload type.
var decoders = map[Kind]func() Message{
	KindTestPing:            func() Message { return &Ping{} },
	KindPlayerJoin:          func() Message { return &Join{} },
	KindDeviceCreate:        func() Message { return &CreateDevice{} },
	KindDeviceUpdate:        func() Message { return &UpdateDevice{} },
	KindDeviceDelete:        func() Message { return &DeleteDevice{} },
	KindChatSend:            func() Message { return &ChatSend{} },
	KindPowerConnect:        func() Message { return &PowerConnect{} },
	KindPowerDisconnect:     func() Message { return &PowerDisconnect{} },
	KindMaintenanceStart:    func() Message { return &MaintenanceStart{} },
	KindMaintenanceComplete: func() Message { return &MaintenanceComplete{} },
}

// Known reports whether kind is a client-to-server kind.
func Known(kind Kind) bool {
	_, ok := decoders[kind]
	return ok
}

// DecodeEnvelope parses the outer frame without interpreting the payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, &DecodeError{Err: ErrInvalidEnvelope, Cause: err}
	}
	if env.Kind == "" {
		return Envelope{}, &DecodeError{Err: ErrInvalidEnvelope, Detail: "kind is required"}
	}
	return env, nil
}

// Decode parses a frame into its typed message.
//
// The returned envelope is valid whenever the outer frame parsed, even if
// the payload did not, so callers can report which kind failed.
func Decode(data []byte) (Envelope, Message, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return Envelope{}, nil, err
	}

	newMsg, ok := decoders[env.Kind]
	if !ok {
		return env, nil, fmt.Errorf("%w: %s", ErrUnknownKind, env.Kind)
	}

	msg := newMsg()
	payload := env.Payload
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		payload = []byte("{}")
	}
	if err := json.Unmarshal(payload, msg); err != nil {
		return env, nil, &DecodeError{Kind: env.Kind, Err: ErrInvalidPayload, Cause: err}
	}

	// Handlers work with values; the pointer only exists for Unmarshal.
	msg = deref(msg)
	if err := msg.validate(); err != nil {
		return env, nil, err
	}
	return env, msg, nil
}

func deref(m Message) Message {
	switch v := m.(type) {
	case *Ping:
		return *v
	case *Join:
		return *v
	case *CreateDevice:
		return *v
	case *UpdateDevice:
		return *v
	case *DeleteDevice:
		return *v
	case *ChatSend:
		return *v
	case *PowerConnect:
		return *v
	case *PowerDisconnect:
		return *v
	case *MaintenanceStart:
		return *v
	case *MaintenanceComplete:
		return *v
	default:
		return m
	}
}

// Encode builds an outbound frame. A zero timestamp is omitted.
func Encode(kind Kind, payload any, timestamp int64) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	data, err := json.Marshal(Envelope{Kind: kind, Payload: raw, Timestamp: timestamp})
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", kind, err)
	}
	return data, nil
}
