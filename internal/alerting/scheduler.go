package alerting

import (
	"sync"
	"time"
)

// AckScheduler manages cancellable delayed tasks keyed by alert id.
// Scheduling for an id that already has a pending task replaces it.
// Unlike a bare timer, a cancelled task never fires, and callbacks are
// expected to revalidate their target anyway.
type AckScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewAckScheduler creates an empty scheduler.
func NewAckScheduler() *AckScheduler {
	return &AckScheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run after delay, replacing any pending task for id.
func (s *AckScheduler) Schedule(id string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops the pending task for id, if any.
func (s *AckScheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// CancelAll stops every pending task.
func (s *AckScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of armed tasks.
func (s *AckScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
