package webhook

import "sync"

// MaxEvents is the number of events the store retains.
const MaxEvents = 50

// Store is a bounded, most-recent-first buffer of received events. Overflow
// silently discards the oldest events.
type Store struct {
	mu     sync.RWMutex
	events []Event
}

func NewStore() *Store {
	return &Store{events: make([]Event, 0, MaxEvents)}
}

// Append inserts ev at the front and truncates the tail to MaxEvents.
func (s *Store) Append(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{})
	copy(s.events[1:], s.events)
	s.events[0] = ev
	if len(s.events) > MaxEvents {
		clear(s.events[MaxEvents:])
		s.events = s.events[:MaxEvents]
	}
}

// List returns a snapshot copy, most-recent-first.
func (s *Store) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Clear empties the buffer.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.events)
	s.events = s.events[:0]
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
