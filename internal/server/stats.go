package server

import (
	"time"

	"github.com/electricworld/electricworld-core/internal/session"
	"github.com/electricworld/electricworld-core/internal/transport"
)

// Stats is a read-only snapshot of the server.
type Stats struct {
	Transport     transport.Stats   `json:"transport"`
	SessionCount  int               `json:"sessionCount"`
	Sessions      []session.Session `json:"sessions"`
	DeviceCount   int               `json:"deviceCount"`
	NetworkCount  int               `json:"networkCount"`
	Dispatch      DispatchStats     `json:"dispatch"`
	Events        EventStats        `json:"events"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
}

// DispatchStats counts handled frames.
type DispatchStats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// EventStats counts event bus losses.
type EventStats struct {
	Dropped      int64 `json:"dropped"`
	SinkFailures int64 `json:"sinkFailures"`
}

// GetStats returns a snapshot combining transport counters with session and
// device state. It reads only through the owners' locks and may be called
// while messages are being dispatched.
func (s *Server) GetStats() Stats {
	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()

	var uptime int64
	if !startedAt.IsZero() {
		uptime = int64(time.Since(startedAt).Seconds())
	}

	sessions := s.sessions.List()
	return Stats{
		Transport:    s.hub.Stats(),
		SessionCount: len(sessions),
		Sessions:     sessions,
		DeviceCount:  s.store.Count(),
		NetworkCount: len(s.store.Networks()),
		Dispatch: DispatchStats{
			Processed: s.dispatcher.Processed(),
			Failed:    s.dispatcher.Failed(),
		},
		Events: EventStats{
			Dropped:      s.bus.Dropped(),
			SinkFailures: s.bus.Failures(),
		},
		UptimeSeconds: uptime,
	}
}
