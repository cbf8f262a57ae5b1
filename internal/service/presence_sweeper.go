package service

import (
	"log"
	"sync"
	"time"
)

// SweeperStore is the slice of the presence repository the sweeper needs.
// Both operations are single bulk updates.
type SweeperStore interface {
	MarkStaleOffline(staleBefore time.Time) (int64, error)
	ClearExpiredTyping(typingBefore time.Time) (int64, error)
}

// PresenceSweeper periodically demotes stale presence rows to OFFLINE and
// clears expired typing state. It is the only enforcement of the typing
// timeout; no event is emitted when it clears state.
type PresenceSweeper struct {
	store        SweeperStore
	interval     time.Duration
	staleWindow  time.Duration
	typingWindow time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex
}

func NewPresenceSweeper(store SweeperStore, interval, staleWindow, typingWindow time.Duration) *PresenceSweeper {
	return &PresenceSweeper{
		store:        store,
		interval:     interval,
		staleWindow:  staleWindow,
		typingWindow: typingWindow,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs one warm-up cleanup, then sweeps on the interval until Stop.
func (s *PresenceSweeper) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.Cleanup()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop cancels the recurring sweep and waits for the loop to exit. Safe to
// call more than once and before Start.
func (s *PresenceSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
}

// Cleanup runs one sweep. Failures are logged and swallowed so a bad tick
// never kills the schedule; it is also safe to call manually at any time.
func (s *PresenceSweeper) Cleanup() {
	now := time.Now()
	if n, err := s.store.MarkStaleOffline(now.Add(-s.staleWindow)); err != nil {
		log.Printf("[sweeper] stale presence sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[sweeper] marked %d stale users offline", n)
	}
	if n, err := s.store.ClearExpiredTyping(now.Add(-s.typingWindow)); err != nil {
		log.Printf("[sweeper] typing sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[sweeper] cleared %d expired typing indicators", n)
	}
}
