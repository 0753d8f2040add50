package session

import "errors"

// ErrSessionNotFound is returned when no session is associated with a connection.
var ErrSessionNotFound = errors.New("session: not found")
