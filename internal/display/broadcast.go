package display

import "time"

// DefaultBroadcastDuration is how long an announcement stays on screen
// when the operator didn't choose a duration.
const DefaultBroadcastDuration = 5 * time.Second

// ShowBroadcast displays an operator announcement. Duration zero keeps
// the message up until it is replaced or cleared.
//
// Expiry is checked against the message id: if a newer broadcast
// replaced this one before the timer fired, the timer leaves it alone.
func (s *Store) ShowBroadcast(msg BroadcastMessage) {
	s.mu.Lock()
	s.broadcast = &msg
	s.mu.Unlock()
	s.notify()

	if msg.Duration <= 0 {
		return
	}

	time.AfterFunc(msg.Duration, func() {
		s.mu.Lock()
		if s.broadcast == nil || s.broadcast.ID != msg.ID {
			s.mu.Unlock()
			return
		}
		s.broadcast = nil
		s.mu.Unlock()
		s.notify()
	})
}

// ClearBroadcast removes the current announcement immediately.
func (s *Store) ClearBroadcast() {
	s.mu.Lock()
	s.broadcast = nil
	s.mu.Unlock()
	s.notify()
}

// Broadcast returns the current announcement, or nil.
func (s *Store) Broadcast() *BroadcastMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.broadcast == nil {
		return nil
	}
	cp := *s.broadcast
	return &cp
}
