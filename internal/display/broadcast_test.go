package display

import (
	"testing"
	"time"
)

func TestShowBroadcast_ExpiresAfterDuration(t *testing.T) {
	s := NewStore()

	s.ShowBroadcast(BroadcastMessage{ID: "b1", Text: "hello", Duration: 20 * time.Millisecond})

	if got := s.Broadcast(); got == nil || got.Text != "hello" {
		t.Fatalf("Broadcast() = %v, want hello message", got)
	}

	time.Sleep(60 * time.Millisecond)

	if got := s.Broadcast(); got != nil {
		t.Errorf("Broadcast() after expiry = %v, want nil", got)
	}
}

func TestShowBroadcast_ZeroDurationPersists(t *testing.T) {
	s := NewStore()

	s.ShowBroadcast(BroadcastMessage{ID: "b1", Text: "closing soon", Duration: 0})

	time.Sleep(30 * time.Millisecond)

	if got := s.Broadcast(); got == nil || got.ID != "b1" {
		t.Errorf("Broadcast() = %v, want persistent b1", got)
	}
}

func TestShowBroadcast_StaleExpiryDoesNotClearNewer(t *testing.T) {
	s := NewStore()

	// First message expires after 40ms; a second one replaces it at
	// ~20ms. The first timer firing must not clear the second message.
	s.ShowBroadcast(BroadcastMessage{ID: "b1", Text: "first", Duration: 40 * time.Millisecond})
	time.Sleep(20 * time.Millisecond)
	s.ShowBroadcast(BroadcastMessage{ID: "b2", Text: "second", Duration: 200 * time.Millisecond})

	time.Sleep(60 * time.Millisecond) // past b1's expiry, before b2's

	got := s.Broadcast()
	if got == nil || got.ID != "b2" {
		t.Errorf("Broadcast() = %v, want b2 still visible", got)
	}
}

func TestClearBroadcast(t *testing.T) {
	s := NewStore()

	s.ShowBroadcast(BroadcastMessage{ID: "b1", Text: "x", Duration: 0})
	s.ClearBroadcast()

	if got := s.Broadcast(); got != nil {
		t.Errorf("Broadcast() after clear = %v, want nil", got)
	}
}
