package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// defaultNamePrefix is prepended to the connection id to form the display
// name of a player that has not joined yet.
const defaultNamePrefix = "玩家"

// Session binds a live connection to a player identity.
type Session struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"clientId"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	Joined       bool      `json:"joined"`
	ConnectedAt  time.Time `json:"connectedAt"`

	// seq is the allocation order of ID.
	seq uint64
}

// Registry owns every Session. Sessions are keyed by connection id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	next     uint64
	now      func() time.Time
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// OnConnect allocates a new player identity for connectionID and returns the
// stored session. A second connect for the same connection id replaces the
// earlier session with a fresh identity.
func (r *Registry) OnConnect(connectionID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	s := &Session{
		ID:           fmt.Sprintf("player_%d", r.next),
		ConnectionID: connectionID,
		Name:         defaultNamePrefix + connectionID,
		ConnectedAt:  r.now().UTC(),
		seq:          r.next,
	}
	r.sessions[connectionID] = s
	return *s
}

// OnDisconnect removes the session keyed by connectionID. It returns the
// removed session and true, or false when there was nothing to remove.
func (r *Registry) OnDisconnect(connectionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, connectionID)
	return *s, true
}

// Rename overwrites the display name when newName is non-empty. The avatar is
// stored when non-empty. The session is marked as joined either way.
func (r *Registry) Rename(connectionID, newName, avatar string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return Session{}, fmt.Errorf("%w: connection %s", ErrSessionNotFound, connectionID)
	}
	if newName != "" {
		s.Name = newName
	}
	if avatar != "" {
		s.Avatar = avatar
	}
	s.Joined = true
	return *s, nil
}

// Lookup returns the session for connectionID.
func (r *Registry) Lookup(connectionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns a snapshot of all sessions ordered by connect time, then by
// identity allocation order.
func (r *Registry) List() []Session {
	r.mu.RLock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectedAt.Before(out[j].ConnectedAt)
		}
		return out[i].seq < out[j].seq
	})
	return out
}
