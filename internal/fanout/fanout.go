// Package fanout delivers outbound frames to one connection or to every
// connection currently registered with the transport.
package fanout

import (
	"errors"
	"fmt"
	"time"

	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
	"github.com/electricworld/electricworld-core/internal/protocol"
)

// Sender is the transport surface used for delivery.
type Sender interface {
	// SendTo queues data for one connection.
	SendTo(connectionID string, data []byte) error

	// ConnectionIDs lists the connections registered at call time.
	ConnectionIDs() []string
}

// Fanout encodes frames once and hands them to the transport.
type Fanout struct {
	sender Sender
	logger *logging.Logger
	now    func() time.Time
}

// New creates a Fanout over sender.
func New(sender Sender, logger *logging.Logger) *Fanout {
	return &Fanout{
		sender: sender,
		logger: logger.With("component", "fanout"),
		now:    time.Now,
	}
}

// Unicast sends one frame to a single connection. Transport failures are
// returned without retry.
func (f *Fanout) Unicast(connectionID string, kind protocol.Kind, payload any) error {
	data, err := protocol.Encode(kind, payload, f.now().UnixMilli())
	if err != nil {
		return err
	}
	if err := f.sender.SendTo(connectionID, data); err != nil {
		f.logger.Warn("unicast failed", "connection_id", connectionID, "kind", kind, "error", err)
		return fmt.Errorf("unicast %s to %s: %w", kind, connectionID, err)
	}
	return nil
}

// Broadcast sends one frame to every registered connection, the originator
// included. All recipients get the same bytes. A failed recipient is logged
// and skipped; the joined per-recipient errors are returned after every
// recipient has been tried.
func (f *Fanout) Broadcast(kind protocol.Kind, payload any) error {
	data, err := protocol.Encode(kind, payload, f.now().UnixMilli())
	if err != nil {
		return err
	}

	var errs []error
	recipients := f.sender.ConnectionIDs()
	for _, id := range recipients {
		if err := f.sender.SendTo(id, data); err != nil {
			f.logger.Warn("broadcast delivery failed", "connection_id", id, "kind", kind, "error", err)
			errs = append(errs, fmt.Errorf("broadcast %s to %s: %w", kind, id, err))
		}
	}

	f.logger.Debug("broadcast sent", "kind", kind, "recipients", len(recipients), "failed", len(errs))
	return errors.Join(errs...)
}
