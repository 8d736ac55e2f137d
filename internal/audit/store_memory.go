package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in process. With a capacity set, the oldest
// events are dropped once it is full.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

type MemoryOption func(*InMemoryStore)

// WithCapacity bounds the number of retained events. Zero means unbounded.
func WithCapacity(n int) MemoryOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity > 0 && len(s.events) >= s.capacity {
		// Shift in place so the backing array does not grow past capacity.
		n := copy(s.events, s.events[len(s.events)-s.capacity+1:])
		s.events = s.events[:n]
	}
	s.events = append(s.events, event)
	return nil
}

// ListByStudent returns the events recorded for one student, oldest first.
func (s *InMemoryStore) ListByStudent(_ context.Context, studentID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every recorded event, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
