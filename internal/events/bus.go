// Package events carries records of applied game events to side-channel
// sinks (the SQLite journal, the MQTT relay, InfluxDB telemetry).
//
// Publishing never blocks the dispatch worker: records go into a bounded
// queue drained by one goroutine, and a full queue drops the record with a
// warning. Sink failures are logged and never reach players.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
)

// Record describes one applied event.
type Record struct {
	Kind         string
	ConnectionID string
	PlayerID     string
	DeviceID     string
	Payload      any
	At           time.Time
}

// Sink consumes records.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Handle processes one record.
	Handle(ctx context.Context, rec Record) error
}

// Bus fans records out to sinks asynchronously.
type Bus struct {
	sinks  []Sink
	queue  chan Record
	logger *logging.Logger

	dropped atomic.Int64
	failed  atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// NewBus creates a bus with room for buffer queued records.
func NewBus(buffer int, logger *logging.Logger, sinks ...Sink) *Bus {
	return &Bus{
		sinks:  sinks,
		queue:  make(chan Record, buffer),
		logger: logger.With("component", "events"),
		done:   make(chan struct{}),
	}
}

// Publish queues rec for every sink. It returns false when the record was
// dropped because the queue is full or the bus is closed.
func (b *Bus) Publish(rec Record) bool {
	if len(b.sinks) == 0 {
		return true
	}
	select {
	case <-b.done:
		b.dropped.Add(1)
		return false
	default:
	}

	select {
	case b.queue <- rec:
		return true
	default:
		b.dropped.Add(1)
		b.logger.Warn("event queue full, record dropped", "kind", rec.Kind)
		return false
	}
}

// Run delivers queued records until ctx is cancelled or Close is called,
// then drains what is already queued.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case rec := <-b.queue:
			b.deliver(ctx, rec)
		case <-ctx.Done():
			b.drain(context.WithoutCancel(ctx))
			return
		case <-b.done:
			b.drain(ctx)
			return
		}
	}
}

// Close stops accepting records. Run drains the queue and returns.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Dropped returns the number of records discarded.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Failures returns the number of sink errors.
func (b *Bus) Failures() int64 {
	return b.failed.Load()
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case rec := <-b.queue:
			b.deliver(ctx, rec)
		default:
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, rec Record) {
	for _, s := range b.sinks {
		if err := s.Handle(ctx, rec); err != nil {
			b.failed.Add(1)
			b.logger.Warn("event sink failed", "sink", s.Name(), "kind", rec.Kind, "error", err)
		}
	}
}
