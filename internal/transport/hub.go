package transport

import (
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
)

// EventType distinguishes transport events.
type EventType int

// Transport event types.
const (
	EventConnect EventType = iota
	EventDisconnect
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is a connection lifecycle change or an inbound frame.
type Event struct {
	Type         EventType
	ConnectionID string
	Data         []byte
}

// EventSink receives events from every connection. It may block; a blocked
// sink stalls only the read pump that called it.
type EventSink func(Event)

// Stats is a snapshot of the transport counters.
type Stats struct {
	ActiveConnections   int   `json:"activeConnections"`
	TotalConnections    int64 `json:"totalConnections"`
	RejectedConnections int64 `json:"rejectedConnections"`
	MessagesReceived    int64 `json:"messagesReceived"`
	MessagesSent        int64 `json:"messagesSent"`
	BytesReceived       int64 `json:"bytesReceived"`
	BytesSent           int64 `json:"bytesSent"`
	SendFailures        int64 `json:"sendFailures"`
}

type counters struct {
	totalConnections    atomic.Int64
	rejectedConnections atomic.Int64
	messagesReceived    atomic.Int64
	messagesSent        atomic.Int64
	bytesReceived       atomic.Int64
	bytesSent           atomic.Int64
	sendFailures        atomic.Int64
}

// Hub manages WebSocket connections.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   *logging.Logger
	sink     EventSink
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	pending int
	closed  bool

	// readers tracks live read pumps, each of which still owes the sink
	// its EventDisconnect.
	readers sync.WaitGroup

	stats counters
}

// NewHub creates a hub that reports events to sink.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, sink EventSink) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger.With("component", "transport"),
		sink:   sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// Game clients connect from arbitrary origins.
				return true
			},
		},
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection. Requests beyond
// the configured connection limit, or arriving after Close, get 503.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.reserve() {
		h.stats.rejectedConnections.Add(1)
		h.logger.Warn("websocket connection refused", "remote_addr", r.RemoteAddr, "limit", h.cfg.MaxConnections)
		http.Error(w, "server is full", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.release()
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	if !h.register(c) {
		conn.Close()
		return
	}

	h.sink(Event{Type: EventConnect, ConnectionID: c.id})

	go c.writePump()
	go c.readPump()
}

// reserve claims a connection slot ahead of the upgrade.
func (h *Hub) reserve() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.cfg.MaxConnections > 0 && len(h.clients)+h.pending >= h.cfg.MaxConnections {
		return false
	}
	h.pending++
	return true
}

func (h *Hub) release() {
	h.mu.Lock()
	h.pending--
	h.mu.Unlock()
}

// register converts a reserved slot into a live client and counts its read
// pump. Both happen under the lock so Close and Wait see either no client
// or a counted one.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	h.pending--
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	h.readers.Add(1)
	count := len(h.clients)
	h.mu.Unlock()

	h.stats.totalConnections.Add(1)
	h.logger.Debug("websocket client connected", "connection_id", c.id, "clients", count)
	return true
}

// unregister removes a client from the hub and reports the disconnect.
// Only the caller that removes the client emits the event, so each
// connection produces exactly one EventDisconnect.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, existed := h.clients[c.id]
	delete(h.clients, c.id)
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	if existed {
		h.logger.Debug("websocket client disconnected", "connection_id", c.id, "clients", count)
	}
	h.sink(Event{Type: EventDisconnect, ConnectionID: c.id})
}

// SendTo queues data for one connection without blocking.
func (h *Hub) SendTo(connectionID string, data []byte) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()

	if !ok {
		h.stats.sendFailures.Add(1)
		return ErrUnknownConnection
	}
	if err := c.trySend(data); err != nil {
		h.stats.sendFailures.Add(1)
		return err
	}
	return nil
}

// ConnectionIDs returns the ids of all registered connections, sorted.
func (h *Hub) ConnectionIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of the transport counters.
func (h *Hub) Stats() Stats {
	return Stats{
		ActiveConnections:   h.ClientCount(),
		TotalConnections:    h.stats.totalConnections.Load(),
		RejectedConnections: h.stats.rejectedConnections.Load(),
		MessagesReceived:    h.stats.messagesReceived.Load(),
		MessagesSent:        h.stats.messagesSent.Load(),
		BytesReceived:       h.stats.bytesReceived.Load(),
		BytesSent:           h.stats.bytesSent.Load(),
		SendFailures:        h.stats.sendFailures.Load(),
	}
}

// Close refuses new connections and closes every open one. Read pumps
// still emit their EventDisconnect as they exit. Close is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		//nolint:errcheck // Best-effort close; the read pump reports the disconnect
		c.conn.Close()
	}
	h.logger.Info("websocket hub closed", "clients", len(clients))
}

// Wait blocks until every read pump has exited and reported its
// disconnect. Call it after Close.
func (h *Hub) Wait() {
	h.readers.Wait()
}

func (h *Hub) pingInterval() time.Duration {
	return time.Duration(h.cfg.PingInterval) * time.Second
}

func (h *Hub) pongWait() time.Duration {
	return time.Duration(h.cfg.PongTimeout) * time.Second
}
