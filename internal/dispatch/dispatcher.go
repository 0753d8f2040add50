package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/events"
	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
	"github.com/electricworld/electricworld-core/internal/protocol"
	"github.com/electricworld/electricworld-core/internal/session"
	"github.com/electricworld/electricworld-core/internal/transport"
)

// Notifier delivers outbound frames.
type Notifier interface {
	Unicast(connectionID string, kind protocol.Kind, payload any) error
	Broadcast(kind protocol.Kind, payload any) error
}

// Publisher receives records of applied events. Publish must not block.
type Publisher interface {
	Publish(rec events.Record) bool
}

// Observer is told about every handled frame.
type Observer interface {
	MessageHandled(kind protocol.Kind, outcome Outcome, elapsed time.Duration)
}

// recordPlayerConnected is the record kind for a new connection. It has no
// wire counterpart; connects are not announced to other players.
const recordPlayerConnected = "player/connected"

// Outcome labels how a frame was handled.
type Outcome string

// Frame outcomes.
const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeInvalid Outcome = "invalid"
	OutcomeUnknown Outcome = "unknown"
	OutcomePanic   Outcome = "panic"
)

// Deps holds the collaborators of a Dispatcher. Publisher and Observer are
// optional.
type Deps struct {
	Sessions  *session.Registry
	Store     *device.Store
	Notifier  Notifier
	Publisher Publisher
	Observer  Observer
	Logger    *logging.Logger
	QueueSize int
}

// Dispatcher applies transport events one at a time.
type Dispatcher struct {
	sessions  *session.Registry
	store     *device.Store
	out       Notifier
	publisher Publisher
	observer  Observer
	logger    *logging.Logger
	now       func() time.Time

	handlers map[protocol.Kind]route

	queue     chan transport.Event
	stopped   chan struct{}
	closeOnce sync.Once

	processed atomic.Int64
	failed    atomic.Int64
}

// handlerFunc applies one decoded message from connectionID.
type handlerFunc func(ctx context.Context, connectionID string, msg protocol.Message) error

// route pairs a handler with the error code reported when it fails.
type route struct {
	code protocol.ErrorCode
	fn   handlerFunc
}

// New creates a Dispatcher.
func New(deps Deps) *Dispatcher {
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		sessions:  deps.Sessions,
		store:     deps.Store,
		out:       deps.Notifier,
		publisher: deps.Publisher,
		observer:  deps.Observer,
		logger:    deps.Logger.With("component", "dispatch"),
		now:       time.Now,
		queue:     make(chan transport.Event, queueSize),
		stopped:   make(chan struct{}),
	}
	d.handlers = map[protocol.Kind]route{
		protocol.KindTestPing:            {protocol.CodeMessageHandlerError, d.handlePing},
		protocol.KindPlayerJoin:          {protocol.CodePlayerJoinFailed, d.handleJoin},
		protocol.KindDeviceCreate:        {protocol.CodeDeviceCreateFailed, d.handleDeviceCreate},
		protocol.KindDeviceUpdate:        {protocol.CodeDeviceUpdateFailed, d.handleDeviceUpdate},
		protocol.KindDeviceDelete:        {protocol.CodeDeviceDeleteFailed, d.handleDeviceDelete},
		protocol.KindChatSend:            {protocol.CodeChatSendFailed, d.handleChat},
		protocol.KindPowerConnect:        {protocol.CodePowerConnectFailed, d.handlePowerConnect},
		protocol.KindPowerDisconnect:     {protocol.CodePowerDisconnectFailed, d.handlePowerDisconnect},
		protocol.KindMaintenanceStart:    {protocol.CodeMaintenanceFailed, d.handleMaintenanceStart},
		protocol.KindMaintenanceComplete: {protocol.CodeMaintenanceFailed, d.handleMaintenanceComplete},
	}
	return d
}

// Submit queues a transport event. It blocks while the queue is full and
// drops the event once the dispatcher has stopped. It is the EventSink
// handed to the transport.
func (d *Dispatcher) Submit(e transport.Event) {
	select {
	case d.queue <- e:
	case <-d.stopped:
		d.logger.Debug("event after stop dropped", "type", e.Type, "connection_id", e.ConnectionID)
	}
}

// Run processes queued events until ctx is cancelled. Events still queued at
// that point are applied before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.closeOnce.Do(func() { close(d.stopped) })

	for {
		select {
		case e := <-d.queue:
			d.Handle(ctx, e)
		case <-ctx.Done():
			for {
				select {
				case e := <-d.queue:
					d.Handle(context.WithoutCancel(ctx), e)
				default:
					return nil
				}
			}
		}
	}
}

// Processed returns the number of frames handled successfully.
func (d *Dispatcher) Processed() int64 {
	return d.processed.Load()
}

// Failed returns the number of frames that produced a system/error.
func (d *Dispatcher) Failed() int64 {
	return d.failed.Load()
}

// Handle applies one transport event synchronously. Run calls it for every
// queued event; it is exported for callers that serialise events
// themselves.
func (d *Dispatcher) Handle(ctx context.Context, e transport.Event) {
	switch e.Type {
	case transport.EventConnect:
		s := d.sessions.OnConnect(e.ConnectionID)
		d.logger.Info("player connected", "connection_id", e.ConnectionID, "player_id", s.ID)
		d.record(recordPlayerConnected, e.ConnectionID, s.ID, "", s)
	case transport.EventDisconnect:
		d.handleDisconnect(e.ConnectionID)
	case transport.EventMessage:
		d.handleFrame(ctx, e.ConnectionID, e.Data)
	}
}

func (d *Dispatcher) handleDisconnect(connectionID string) {
	s, ok := d.sessions.OnDisconnect(connectionID)
	if !ok {
		return
	}
	d.logger.Info("player disconnected", "connection_id", connectionID, "player_id", s.ID)

	left := protocol.PlayerLeft{PlayerID: s.ID, Reason: protocol.LeaveReasonDisconnected}
	d.broadcast(protocol.KindPlayerLeft, left)
	d.record(string(protocol.KindPlayerLeft), connectionID, s.ID, "", left)
}

func (d *Dispatcher) handleFrame(ctx context.Context, connectionID string, data []byte) {
	start := d.now()

	env, msg, err := protocol.Decode(data)
	switch {
	case errors.Is(err, protocol.ErrUnknownKind):
		d.logger.Warn("unknown message kind ignored", "connection_id", connectionID, "kind", env.Kind)
		d.observe(env.Kind, OutcomeUnknown, start)
		return
	case err != nil:
		d.logger.Warn("invalid message", "connection_id", connectionID, "kind", env.Kind, "error", err)
		d.fail(connectionID, protocol.CodeInvalidMessage, err)
		d.observe(env.Kind, OutcomeInvalid, start)
		return
	}

	r := d.handlers[msg.Kind()]
	outcome := d.invoke(ctx, connectionID, r, msg)
	d.observe(msg.Kind(), outcome, start)
}

// invoke runs a handler inside the error boundary.
func (d *Dispatcher) invoke(ctx context.Context, connectionID string, r route, msg protocol.Message) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("handler panic: %v", p)
			d.logger.Error("message handler panicked", "connection_id", connectionID, "kind", msg.Kind(), "panic", p)
			d.fail(connectionID, protocol.CodeMessageHandlerError, err)
			outcome = OutcomePanic
		}
	}()

	if err := r.fn(ctx, connectionID, msg); err != nil {
		d.logger.Warn("message handler failed",
			"connection_id", connectionID,
			"kind", msg.Kind(),
			"code", r.code,
			"error", err,
		)
		d.fail(connectionID, r.code, err)
		return OutcomeFailed
	}
	d.processed.Add(1)
	return OutcomeOK
}

// fail answers the originating connection with a system/error.
func (d *Dispatcher) fail(connectionID string, code protocol.ErrorCode, err error) {
	d.failed.Add(1)
	d.unicast(connectionID, protocol.KindSystemError, systemError(code, err))
}

func (d *Dispatcher) unicast(connectionID string, kind protocol.Kind, payload any) {
	if err := d.out.Unicast(connectionID, kind, payload); err != nil {
		d.logger.Debug("unicast not delivered", "connection_id", connectionID, "kind", kind, "error", err)
	}
}

// broadcast sends to every connection. Per-recipient failures were already
// logged by the notifier and are not the sender's concern.
func (d *Dispatcher) broadcast(kind protocol.Kind, payload any) {
	if err := d.out.Broadcast(kind, payload); err != nil {
		d.logger.Debug("broadcast partially delivered", "kind", kind, "error", err)
	}
}

func (d *Dispatcher) record(kind, connectionID, playerID, deviceID string, payload any) {
	if d.publisher == nil {
		return
	}
	d.publisher.Publish(events.Record{
		Kind:         kind,
		ConnectionID: connectionID,
		PlayerID:     playerID,
		DeviceID:     deviceID,
		Payload:      payload,
		At:           d.now().UTC(),
	})
}

func (d *Dispatcher) observe(kind protocol.Kind, outcome Outcome, start time.Time) {
	if d.observer == nil {
		return
	}
	d.observer.MessageHandled(kind, outcome, d.now().Sub(start))
}
