package transport

import "errors"

var (
	// ErrUnknownConnection is returned when sending to an id that is not
	// registered.
	ErrUnknownConnection = errors.New("transport: unknown connection")

	// ErrConnectionClosed is returned when sending to a connection that is
	// shutting down.
	ErrConnectionClosed = errors.New("transport: connection closed")

	// ErrSendBufferFull is returned when a connection's send buffer has no
	// room left.
	ErrSendBufferFull = errors.New("transport: send buffer full")
)
