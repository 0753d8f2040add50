package fanout

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
	"github.com/electricworld/electricworld-core/internal/protocol"
)

var errBroken = errors.New("broken pipe")

// MockSender records frames per connection and fails for ids in broken.
type MockSender struct {
	mu       sync.Mutex
	ids      []string
	broken   map[string]bool
	received map[string][][]byte
}

func NewMockSender(ids ...string) *MockSender {
	return &MockSender{
		ids:      ids,
		broken:   make(map[string]bool),
		received: make(map[string][][]byte),
	}
}

func (m *MockSender) SendTo(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken[id] {
		return errBroken
	}
	m.received[id] = append(m.received[id], data)
	return nil
}

func (m *MockSender) ConnectionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.ids...)
	sort.Strings(out)
	return out
}

func (m *MockSender) frames(id string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received[id]
}

func newTestFanout(sender Sender) (*Fanout, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", &buf)
	f := New(sender, logger)
	f.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return f, &buf
}

func TestUnicast(t *testing.T) {
	sender := NewMockSender("c1", "c2")
	f, _ := newTestFanout(sender)

	if err := f.Unicast("c1", protocol.KindPlayerJoined, protocol.PlayerJoined{PlayerID: "player_1", PlayerName: "Alice"}); err != nil {
		t.Fatalf("Unicast() error = %v", err)
	}

	if got := len(sender.frames("c1")); got != 1 {
		t.Fatalf("c1 received %d frames, want 1", got)
	}
	if got := len(sender.frames("c2")); got != 0 {
		t.Errorf("c2 received %d frames, want 0", got)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(sender.frames("c1")[0], &env); err != nil {
		t.Fatal(err)
	}
	if env.Kind != protocol.KindPlayerJoined || env.Timestamp != 1700000000000 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestUnicast_TransportFailure(t *testing.T) {
	sender := NewMockSender("c1")
	sender.broken["c1"] = true
	f, _ := newTestFanout(sender)

	err := f.Unicast("c1", protocol.KindTestPong, protocol.Pong{})
	if !errors.Is(err, errBroken) {
		t.Fatalf("Unicast() error = %v, want wrapped errBroken", err)
	}
}

func TestBroadcast_IncludesEveryConnection(t *testing.T) {
	sender := NewMockSender("c1", "c2", "c3")
	f, _ := newTestFanout(sender)

	if err := f.Broadcast(protocol.KindChatReceived, protocol.ChatReceived{Message: "hi"}); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	first := sender.frames("c1")
	for _, id := range []string{"c1", "c2", "c3"} {
		frames := sender.frames(id)
		if len(frames) != 1 {
			t.Fatalf("%s received %d frames, want 1", id, len(frames))
		}
		if !bytes.Equal(frames[0], first[0]) {
			t.Errorf("%s received different bytes", id)
		}
	}
}

func TestBroadcast_OneRecipientFails(t *testing.T) {
	sender := NewMockSender("c1", "c2", "c3", "c4")
	sender.broken["c2"] = true
	f, logs := newTestFanout(sender)

	err := f.Broadcast(protocol.KindDeviceDeleted, protocol.DeviceDeleted{DeviceID: "d1"})
	if !errors.Is(err, errBroken) {
		t.Fatalf("Broadcast() error = %v, want joined errBroken", err)
	}

	for _, id := range []string{"c1", "c3", "c4"} {
		if got := len(sender.frames(id)); got != 1 {
			t.Errorf("%s received %d frames, want 1", id, got)
		}
	}
	if !bytes.Contains(logs.Bytes(), []byte(`"connection_id":"c2"`)) {
		t.Errorf("log does not name the failed recipient:\n%s", logs.String())
	}
}

func TestBroadcast_NoConnections(t *testing.T) {
	f, _ := newTestFanout(NewMockSender())
	if err := f.Broadcast(protocol.KindPlayerLeft, protocol.PlayerLeft{PlayerID: "player_1"}); err != nil {
		t.Errorf("Broadcast() error = %v, want nil", err)
	}
}

func TestBroadcast_EncodeFailureSendsNothing(t *testing.T) {
	sender := NewMockSender("c1")
	f, _ := newTestFanout(sender)

	if err := f.Broadcast(protocol.KindSystemError, func() {}); err == nil {
		t.Fatal("Broadcast() expected encode error")
	}
	if got := len(sender.frames("c1")); got != 0 {
		t.Errorf("c1 received %d frames after encode failure", got)
	}
}
