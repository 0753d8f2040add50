package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
)

const waitTimeout = 2 * time.Second

func testWSConfig() config.WebSocketConfig {
	cfg := config.Default().WebSocket
	cfg.SendBuffer = 4
	return cfg
}

type harness struct {
	hub    *Hub
	server *httptest.Server
	events chan Event
}

func newHarness(t *testing.T, cfg config.WebSocketConfig) *harness {
	t.Helper()
	events := make(chan Event, 64)
	hub := NewHub(cfg, logging.Discard(), func(e Event) { events <- e })
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &harness{hub: hub, server: server, events: events}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (h *harness) next(t *testing.T, want EventType) Event {
	t.Helper()
	select {
	case e := <-h.events:
		if e.Type != want {
			t.Fatalf("event type = %v, want %v", e.Type, want)
		}
		return e
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %v event", want)
		return Event{}
	}
}

func TestHub_ConnectMessageDisconnectOrder(t *testing.T) {
	h := newHarness(t, testWSConfig())
	conn := h.dial(t)

	connected := h.next(t, EventConnect)
	if connected.ConnectionID == "" {
		t.Fatal("connect event has no connection id")
	}

	for _, frame := range []string{`{"kind":"a"}`, `{"kind":"b"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatal(err)
		}
	}
	first := h.next(t, EventMessage)
	second := h.next(t, EventMessage)
	if string(first.Data) != `{"kind":"a"}` || string(second.Data) != `{"kind":"b"}` {
		t.Errorf("messages out of order: %s, %s", first.Data, second.Data)
	}
	if first.ConnectionID != connected.ConnectionID {
		t.Errorf("message connection id %q, want %q", first.ConnectionID, connected.ConnectionID)
	}

	conn.Close()
	gone := h.next(t, EventDisconnect)
	if gone.ConnectionID != connected.ConnectionID {
		t.Errorf("disconnect id %q, want %q", gone.ConnectionID, connected.ConnectionID)
	}
	if h.hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after disconnect", h.hub.ClientCount())
	}

	stats := h.hub.Stats()
	if stats.MessagesReceived != 2 || stats.TotalConnections != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.BytesReceived != int64(len(`{"kind":"a"}`)*2) {
		t.Errorf("BytesReceived = %d", stats.BytesReceived)
	}
}

func TestHub_SendTo(t *testing.T) {
	h := newHarness(t, testWSConfig())
	conn := h.dial(t)
	id := h.next(t, EventConnect).ConnectionID

	if err := h.hub.SendTo(id, []byte(`{"kind":"test/pong"}`)); err != nil {
		t.Fatalf("SendTo() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(waitTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(data) != `{"kind":"test/pong"}` {
		t.Errorf("received %s", data)
	}
}

func TestHub_SendToUnknown(t *testing.T) {
	h := newHarness(t, testWSConfig())
	if err := h.hub.SendTo("nobody", []byte("x")); !errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("SendTo() error = %v, want ErrUnknownConnection", err)
	}
	if h.hub.Stats().SendFailures != 1 {
		t.Errorf("SendFailures = %d, want 1", h.hub.Stats().SendFailures)
	}
}

func TestClient_TrySend(t *testing.T) {
	c := &client{id: "c", send: make(chan []byte, 1)}

	if err := c.trySend([]byte("1")); err != nil {
		t.Fatalf("first trySend() error = %v", err)
	}
	if err := c.trySend([]byte("2")); !errors.Is(err, ErrSendBufferFull) {
		t.Fatalf("second trySend() error = %v, want ErrSendBufferFull", err)
	}

	c.close()
	c.close()
	if err := c.trySend([]byte("3")); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("trySend() after close error = %v, want ErrConnectionClosed", err)
	}
}

func TestHub_ConnectionLimit(t *testing.T) {
	cfg := testWSConfig()
	cfg.MaxConnections = 1
	h := newHarness(t, cfg)

	h.dial(t)
	h.next(t, EventConnect)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second Dial() succeeded beyond the connection limit")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("refused dial response = %v, want 503", resp)
	}
	resp.Body.Close()

	if got := h.hub.Stats().RejectedConnections; got != 1 {
		t.Errorf("RejectedConnections = %d, want 1", got)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	h := newHarness(t, testWSConfig())
	conn := h.dial(t)
	id := h.next(t, EventConnect).ConnectionID

	h.hub.Close()
	h.hub.Close()
	h.hub.Wait()

	if h.hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Close and Wait", h.hub.ClientCount())
	}
	if gone := h.next(t, EventDisconnect); gone.ConnectionID != id {
		t.Errorf("disconnect id %q, want %q", gone.ConnectionID, id)
	}

	conn.SetReadDeadline(time.Now().Add(waitTimeout))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client still readable after hub close")
	}

	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() succeeded after Close")
	}
	if resp != nil {
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestHub_ConnectionIDsSorted(t *testing.T) {
	h := newHarness(t, testWSConfig())
	for i := 0; i < 3; i++ {
		h.dial(t)
		h.next(t, EventConnect)
	}

	ids := h.hub.ConnectionIDs()
	if len(ids) != 3 {
		t.Fatalf("ConnectionIDs() = %v, want 3 ids", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("ids not sorted: %v", ids)
		}
	}
}

func waitReturns(h *Hub, within time.Duration) bool {
	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(within):
		return false
	}
}

func TestHub_RegisterCountsReadPump(t *testing.T) {
	h := NewHub(testWSConfig(), logging.Discard(), func(Event) {})
	if !h.reserve() {
		t.Fatal("reserve() = false")
	}
	c := &client{id: "conn-1", hub: h, send: make(chan []byte, 1)}
	if !h.register(c) {
		t.Fatal("register() = false on an open hub")
	}

	// The read pump is counted as soon as the client is visible, so Wait
	// cannot slip past it.
	if waitReturns(h, 50*time.Millisecond) {
		t.Fatal("Wait() returned while a registered read pump was outstanding")
	}
	h.readers.Done()
	if !waitReturns(h, waitTimeout) {
		t.Fatal("Wait() did not return after the read pump finished")
	}
}

func TestHub_RegisterAfterCloseIsNotCounted(t *testing.T) {
	h := NewHub(testWSConfig(), logging.Discard(), func(Event) {})
	if !h.reserve() {
		t.Fatal("reserve() = false")
	}
	h.Close()

	c := &client{id: "late", hub: h, send: make(chan []byte, 1)}
	if h.register(c) {
		t.Fatal("register() = true after Close")
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", h.ClientCount())
	}
	if !waitReturns(h, waitTimeout) {
		t.Fatal("Wait() blocked on a client refused after Close")
	}
}
