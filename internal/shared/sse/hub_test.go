package sse

import (
	"encoding/json"
	"testing"
)

func TestNotifierTargetsUser(t *testing.T) {
	hub := NewHub(nil)
	alice := &Client{ID: "a1", UserID: "alice", Events: make(chan Event, 4)}
	bob := &Client{ID: "b1", UserID: "bob", Events: make(chan Event, 4)}
	hub.Register(alice)
	hub.Register(bob)

	n := NewNotifier(hub)
	n.Error("alice", "Failed to save")

	select {
	case ev := <-alice.Events:
		if ev.EventType != EventToast {
			t.Fatalf("Expected toast event, got %s", ev.EventType)
		}
		var toast Toast
		if err := json.Unmarshal([]byte(ev.Data), &toast); err != nil {
			t.Fatalf("Bad toast payload: %v", err)
		}
		if toast.Level != LevelError || toast.Message != "Failed to save" {
			t.Fatalf("Unexpected toast: %+v", toast)
		}
	default:
		t.Fatal("Expected alice to receive the toast")
	}

	select {
	case ev := <-bob.Events:
		t.Fatalf("bob should not receive alice's toast, got %+v", ev)
	default:
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(nil)
	full := &Client{ID: "f", UserID: "u", Events: make(chan Event)}
	hub.Register(full)

	NewNotifier(hub).QuoteUpdated("", "q1", "Accepted", "approval")

	hub.Unregister("f")
	if hub.ClientCount() != 0 {
		t.Fatalf("Expected no clients, got %d", hub.ClientCount())
	}
}
