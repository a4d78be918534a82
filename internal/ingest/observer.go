package ingest

import (
	"fmt"
	"log"
	"sync"

	"github.com/getnexar/skynet/internal/transcript"
)

// Observer is notified after each successful reconciliation with the
// session's identifier and the full message sequence of its transcript.
type Observer func(sessionID string, messages []transcript.Message) error

// observerSet fans a session update out to registered observers in
// registration order. A failing or panicking observer is logged and
// isolated; it never blocks delivery to the others.
type observerSet struct {
	logger *log.Logger

	mu  sync.Mutex
	fns []Observer
}

func (s *observerSet) add(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

func (s *observerSet) publish(sessionID string, messages []transcript.Message) {
	s.mu.Lock()
	fns := make([]Observer, len(s.fns))
	copy(fns, s.fns)
	s.mu.Unlock()

	for i, fn := range fns {
		if err := safeCall(fn, sessionID, messages); err != nil {
			s.logger.Printf("observer %d: session %s: %v", i, sessionID, err)
		}
	}
}

func safeCall(fn Observer, sessionID string, messages []transcript.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(sessionID, messages)
}
