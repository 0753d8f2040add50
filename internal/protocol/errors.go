package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEnvelope is returned when a frame is not a JSON envelope
	// with a non-empty kind.
	ErrInvalidEnvelope = errors.New("protocol: invalid envelope")

	// ErrInvalidPayload is returned when a payload does not match the shape
	// its kind requires.
	ErrInvalidPayload = errors.New("protocol: invalid payload")

	// ErrUnknownKind is returned for kinds outside the client-to-server set.
	ErrUnknownKind = errors.New("protocol: unknown kind")
)

// DecodeError describes a frame that could not be turned into a Message.
// It matches ErrInvalidEnvelope or ErrInvalidPayload with errors.Is, and
// also unwraps to the underlying cause when there is one.
type DecodeError struct {
	Kind   Kind
	Err    error
	Detail string
	Cause  error
}

func (e *DecodeError) Error() string {
	msg := e.Err.Error()
	if e.Kind != "" {
		msg += " for " + string(e.Kind)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func invalidPayload(kind Kind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Err: ErrInvalidPayload, Detail: fmt.Sprintf(format, args...)}
}
