package sinks

import (
	"context"
	"sync"

	"siegeline/server/logging"
)

// MemorySink retains every event it receives. Intended for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []logging.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

func (s *MemorySink) Events() []logging.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]logging.Event(nil), s.events...)
}

func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
