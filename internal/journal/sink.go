package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/electricworld/electricworld-core/internal/events"
)

// Sink writes every event record to a Repository.
type Sink struct {
	repo Repository
}

// NewSink creates a journal sink.
func NewSink(repo Repository) *Sink {
	return &Sink{repo: repo}
}

// Name implements events.Sink.
func (s *Sink) Name() string { return "journal" }

// Handle implements events.Sink.
func (s *Sink) Handle(ctx context.Context, rec events.Record) error {
	entry := &Entry{
		Kind:         rec.Kind,
		ConnectionID: rec.ConnectionID,
		PlayerID:     rec.PlayerID,
		DeviceID:     rec.DeviceID,
		CreatedAt:    rec.At,
	}
	if rec.Payload != nil {
		b, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("marshalling %s payload: %w", rec.Kind, err)
		}
		entry.Payload = b
	}
	return s.repo.Create(ctx, entry)
}
