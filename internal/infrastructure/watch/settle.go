package watch

import (
	"sync"
	"time"
)

// settleTimer runs fire once a burst of saves has been quiet for window.
// Editors often write a file several times per save.
type settleTimer struct {
	window time.Duration
	fire   func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	running sync.WaitGroup
}

func newSettleTimer(window time.Duration, fire func()) *settleTimer {
	return &settleTimer{window: window, fire: fire}
}

// Touch restarts the quiet window.
func (s *settleTimer) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.run)
}

func (s *settleTimer) run() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	s.fire()
}

// Stop drops any pending fire and waits for one that already started.
// Touch is a no-op afterwards. fire must not call Stop.
func (s *settleTimer) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.running.Wait()
}
