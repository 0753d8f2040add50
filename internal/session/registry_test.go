package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestOnConnect_AllocatesSequentialIdentities(t *testing.T) {
	r := NewRegistry()

	first := r.OnConnect("c1")
	second := r.OnConnect("c2")

	if first.ID != "player_1" {
		t.Errorf("first.ID = %q, want player_1", first.ID)
	}
	if second.ID != "player_2" {
		t.Errorf("second.ID = %q, want player_2", second.ID)
	}
	if first.Name != "玩家c1" {
		t.Errorf("first.Name = %q, want 玩家c1", first.Name)
	}
	if first.ConnectionID != "c1" {
		t.Errorf("first.ConnectionID = %q, want c1", first.ConnectionID)
	}
	if first.Joined {
		t.Error("new session should not be joined")
	}
}

func TestOnConnect_IdentitiesNotReusedAfterDisconnect(t *testing.T) {
	r := NewRegistry()

	r.OnConnect("c1")
	r.OnDisconnect("c1")
	s := r.OnConnect("c1")

	if s.ID != "player_2" {
		t.Errorf("ID = %q, want player_2 (identities are never reused)", s.ID)
	}
}

func TestOnDisconnect_Idempotent(t *testing.T) {
	r := NewRegistry()
	r.OnConnect("c1")

	if _, ok := r.OnDisconnect("c1"); !ok {
		t.Fatal("first disconnect should remove the session")
	}
	if _, ok := r.OnDisconnect("c1"); ok {
		t.Error("second disconnect should be a no-op")
	}
	if _, ok := r.OnDisconnect("never-connected"); ok {
		t.Error("disconnect of unknown connection should be a no-op")
	}
	if got := r.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestRename(t *testing.T) {
	tests := []struct {
		name     string
		newName  string
		avatar   string
		wantName string
	}{
		{name: "non-empty name overwrites", newName: "Alice", wantName: "Alice"},
		{name: "empty name keeps default", newName: "", wantName: "玩家c1"},
		{name: "avatar stored", newName: "Bob", avatar: "bob.png", wantName: "Bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.OnConnect("c1")

			s, err := r.Rename("c1", tt.newName, tt.avatar)
			if err != nil {
				t.Fatalf("Rename() error = %v", err)
			}
			if s.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", s.Name, tt.wantName)
			}
			if s.Avatar != tt.avatar {
				t.Errorf("Avatar = %q, want %q", s.Avatar, tt.avatar)
			}
			if !s.Joined {
				t.Error("session should be joined after rename")
			}

			stored, _ := r.Lookup("c1")
			if stored.Name != tt.wantName {
				t.Errorf("stored Name = %q, want %q", stored.Name, tt.wantName)
			}
		})
	}
}

func TestRename_UnknownConnection(t *testing.T) {
	r := NewRegistry()

	_, err := r.Rename("ghost", "Alice", "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Rename() error = %v, want ErrSessionNotFound", err)
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.OnConnect("c1")

	s, ok := r.Lookup("c1")
	if !ok {
		t.Fatal("Lookup() should find c1")
	}
	s.Name = "mutated"

	again, _ := r.Lookup("c1")
	if again.Name == "mutated" {
		t.Error("Lookup() must return a copy")
	}
}

// Session count always equals connects minus the disconnects that removed something.
func TestCountMatchesAppliedEvents(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		r := NewRegistry()
		live := make(map[string]bool)
		nextConn := 0

		for step := 0; step < 200; step++ {
			if rng.Intn(2) == 0 {
				id := fmt.Sprintf("c%d", nextConn)
				nextConn++
				r.OnConnect(id)
				live[id] = true
				continue
			}
			// Disconnect either a live or an unknown connection.
			id := fmt.Sprintf("c%d", rng.Intn(nextConn+3))
			_, removed := r.OnDisconnect(id)
			if removed != live[id] {
				t.Fatalf("OnDisconnect(%s) removed=%v, want %v", id, removed, live[id])
			}
			delete(live, id)
		}

		if got := r.Count(); got != len(live) {
			t.Fatalf("round %d: Count() = %d, want %d", round, got, len(live))
		}
		if got := len(r.List()); got != len(live) {
			t.Fatalf("round %d: len(List()) = %d, want %d", round, got, len(live))
		}
	}
}

func TestList_OrderedByConnectTime(t *testing.T) {
	r := NewRegistry()
	for i := 1; i <= 3; i++ {
		r.OnConnect(fmt.Sprintf("c%d", i))
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(list))
	}
	for i, s := range list {
		want := fmt.Sprintf("player_%d", i+1)
		if s.ID != want {
			t.Errorf("List()[%d].ID = %q, want %q", i, s.ID, want)
		}
	}
}

func TestList_SameConnectTimeOrderedByAllocation(t *testing.T) {
	r := NewRegistry()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	const n = 12
	for i := 1; i <= n; i++ {
		r.OnConnect(fmt.Sprintf("c%d", i))
	}

	list := r.List()
	if len(list) != n {
		t.Fatalf("len(List()) = %d, want %d", len(list), n)
	}
	for i, s := range list {
		// player_10 must follow player_9, not player_1.
		want := fmt.Sprintf("player_%d", i+1)
		if s.ID != want {
			t.Errorf("List()[%d].ID = %q, want %q", i, s.ID, want)
		}
	}
}

func TestConcurrentReadsDuringMutation(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			id := fmt.Sprintf("c%d", i)
			r.OnConnect(id)
			r.OnDisconnect(id)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = r.List()
			_ = r.Count()
		}
	}()
	wg.Wait()

	if got := r.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}
