package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/dispatch"
	"github.com/electricworld/electricworld-core/internal/events"
	"github.com/electricworld/electricworld-core/internal/fanout"
	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
	"github.com/electricworld/electricworld-core/internal/journal"
	"github.com/electricworld/electricworld-core/internal/session"
	"github.com/electricworld/electricworld-core/internal/transport"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// eventBufferSize bounds the queue between the dispatcher and the sinks.
const eventBufferSize = 1024

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("server: already started")

	// ErrListen wraps a failure to bind the listening address.
	ErrListen = errors.New("server: cannot listen")
)

// Deps holds the dependencies of a Server. Journal and Sinks are optional.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Journal journal.Repository
	Sinks   []events.Sink
	Version string

	// Store replaces the device store built from Config. Tests use it to
	// share a store with their assertions.
	Store *device.Store
}

type lifecycle int

const (
	stateNew lifecycle = iota
	stateRunning
	stateStopped
)

// Server is the Electric World game server.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	version string

	sessions   *session.Registry
	store      *device.Store
	hub        *transport.Hub
	dispatcher *dispatch.Dispatcher
	bus        *events.Bus
	journal    journal.Repository
	metrics    *Metrics

	mu        sync.Mutex
	state     lifecycle
	listener  net.Listener
	http      *http.Server
	startedAt time.Time

	stopDispatch context.CancelFunc
	dispatchDone chan struct{}
	busDone      chan struct{}
	serveDone    chan struct{}
}

// New builds a server and all of its components. Nothing listens until
// Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "server"),
		version:  deps.Version,
		sessions: session.NewRegistry(),
		store:    deps.Store,
		journal:  deps.Journal,
	}
	if s.store == nil {
		s.store = device.NewStore(device.WithOwnershipEnforcement(deps.Config.Game.EnforceOwnership))
	}
	s.store.SetLogger(deps.Logger.With("component", "device"))

	s.bus = events.NewBus(eventBufferSize, deps.Logger, deps.Sinks...)

	// The hub's sink is the dispatcher, which needs the hub to send; close
	// the loop through a variable.
	var d *dispatch.Dispatcher
	s.hub = transport.NewHub(deps.Config.WebSocket, deps.Logger, func(e transport.Event) { d.Submit(e) })

	s.metrics = NewMetrics(prometheus.NewRegistry(), s)
	d = dispatch.New(dispatch.Deps{
		Sessions:  s.sessions,
		Store:     s.store,
		Notifier:  fanout.New(s.hub, deps.Logger),
		Publisher: s.bus,
		Observer:  s.metrics,
		Logger:    deps.Logger,
		QueueSize: deps.Config.Game.DispatchQueueSize,
	})
	s.dispatcher = d

	return s, nil
}

// Start binds the listening address and begins serving. A bind failure is
// returned to the caller. The server runs until Stop; ctx only supplies
// values to background work.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateNew {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("%w on %s: %w", ErrListen, s.cfg.Address(), err)
	}
	s.listener = ln
	s.startedAt = time.Now()

	runCtx := context.WithoutCancel(ctx)

	var dispatchCtx context.Context
	dispatchCtx, s.stopDispatch = context.WithCancel(runCtx)
	s.dispatchDone = make(chan struct{})
	go func() {
		defer close(s.dispatchDone)
		//nolint:errcheck // Run only returns nil
		s.dispatcher.Run(dispatchCtx)
	}()

	s.busDone = make(chan struct{})
	go func() {
		defer close(s.busDone)
		s.bus.Run(runCtx)
	}()

	// The WebSocket upgrade clears these deadlines on the hijacked
	// connection, so they bound only plain HTTP requests.
	s.http = &http.Server{
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}
	s.serveDone = make(chan struct{})
	go func() {
		defer close(s.serveDone)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.state = stateRunning
	s.logger.Info("server started",
		"address", ln.Addr().String(),
		"websocket_path", s.cfg.WebSocket.Path,
		"enforce_ownership", s.store.EnforcesOwnership(),
	)
	return nil
}

// Stop closes every connection and the listener, lets the dispatcher apply
// the resulting disconnects, then flushes the event sinks. Stop is
// idempotent and safe to call before Start.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state != stateRunning {
		s.state = stateStopped
		s.mu.Unlock()
		return nil
	}
	s.state = stateStopped
	s.mu.Unlock()

	s.logger.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	// WebSocket connections are hijacked and invisible to Shutdown.
	s.hub.Close()
	shutdownErr := s.http.Shutdown(ctx)
	s.hub.Wait()

	s.stopDispatch()
	<-s.dispatchDone

	s.bus.Close()
	<-s.busDone
	<-s.serveDone

	if shutdownErr != nil {
		return fmt.Errorf("shutting down http server: %w", shutdownErr)
	}
	s.logger.Info("server stopped")
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Store returns the device store.
func (s *Server) Store() *device.Store {
	return s.store
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Metrics returns the server's Prometheus metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
