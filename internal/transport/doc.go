// Package transport accepts WebSocket connections and moves frames between
// them and the rest of the server.
//
// Each accepted connection gets a random id and two goroutines: a read pump
// that forwards inbound frames as Events, and a write pump that drains a
// bounded per-connection send buffer. A slow or broken client only ever
// fills its own buffer; SendTo fails fast for it with ErrSendBufferFull or
// ErrConnectionClosed and other connections are unaffected.
//
// Events for one connection are emitted in order: EventConnect, then every
// EventMessage, then EventDisconnect.
package transport
