package dispatch

import (
	"errors"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/protocol"
	"github.com/electricworld/electricworld-core/internal/session"
)

// genericFailureMessage replaces the text of internal errors in frames sent
// to clients.
const genericFailureMessage = "message handling failed"

// classify maps a handler error onto the failure reason sent to clients.
func classify(err error) protocol.Reason {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound), errors.Is(err, session.ErrSessionNotFound):
		return protocol.ReasonNotFound
	case errors.Is(err, device.ErrDeviceExists):
		return protocol.ReasonDuplicateKey
	case errors.Is(err, device.ErrNotOwner):
		return protocol.ReasonUnauthorized
	case errors.Is(err, device.ErrInvalidDevice),
		errors.Is(err, device.ErrInvalidDeviceType),
		errors.Is(err, device.ErrInvalidState),
		errors.Is(err, device.ErrInvalidProperties),
		errors.Is(err, device.ErrInvalidConnection),
		errors.Is(err, protocol.ErrInvalidPayload),
		errors.Is(err, protocol.ErrInvalidEnvelope):
		return protocol.ReasonInvalid
	default:
		return protocol.ReasonInternal
	}
}

// systemError builds the client-facing error payload for err.
func systemError(code protocol.ErrorCode, err error) protocol.SystemError {
	reason := classify(err)
	msg := err.Error()
	if reason == protocol.ReasonInternal {
		msg = genericFailureMessage
	}
	return protocol.SystemError{Code: code, Reason: reason, Message: msg}
}
