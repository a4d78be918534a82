package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventHub_BroadcastAndUnsubscribe(t *testing.T) {
	hub := newEventHub()

	ch := hub.subscribe()
	hub.broadcast(sessionUpdateEvent{Type: "session_update", SessionID: "s1", MessageCount: 2})

	select {
	case data := <-ch:
		var ev sessionUpdateEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.SessionID != "s1" || ev.MessageCount != 2 {
			t.Errorf("ev = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	hub.unsubscribe(ch)
	hub.broadcast(sessionUpdateEvent{Type: "session_update", SessionID: "s2"})

	select {
	case data := <-ch:
		t.Fatalf("unexpected event after unsubscribe: %s", data)
	default:
	}
}

func TestEventHub_SlowClientDropsEvents(t *testing.T) {
	hub := newEventHub()

	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	// fill the buffer past capacity; broadcast must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.broadcast(sessionUpdateEvent{Type: "session_update", SessionID: "s1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}
