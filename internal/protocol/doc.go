// Package protocol defines the wire format exchanged with game clients.
//
// Every frame is a JSON envelope:
//
//	{"kind": "device/create", "payload": {...}, "timestamp": 1767323045000}
//
// Inbound frames are decoded into a closed set of typed messages, one per
// client-to-server kind. A frame whose payload does not fit its kind fails
// with a *DecodeError before any handler sees it. Frames of a kind the server
// does not know fail with ErrUnknownKind.
//
// Outbound frames are built with Encode from one of the payload types in
// outbound.go (or a device.Device / device.PowerNetwork for device and
// network notifications).
package protocol
