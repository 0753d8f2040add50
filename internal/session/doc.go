// Package session provides the Session Registry: the mapping from a live
// transport connection to a stable player identity.
//
// A session is created when the transport reports a new connection and is
// destroyed when the connection goes away. Player identities are allocated
// from a per-registry counter ("player_1", "player_2", ...) and are never
// reused for the lifetime of the process.
//
// Thread Safety: All methods are safe for concurrent use. Mutations are
// expected to come from the single dispatch worker; reads (Stats, HTTP
// queries) may come from any goroutine.
package session
