package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
)

type fakeSweeperStore struct {
	mu sync.Mutex

	staleCalls   int
	staleCutoffs []time.Time
	staleErr     error

	typingCalls   int
	typingCutoffs []time.Time
	typingErr     error
}

func (f *fakeSweeperStore) MarkStaleOffline(staleBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staleCalls++
	f.staleCutoffs = append(f.staleCutoffs, staleBefore)
	if f.staleErr != nil {
		return 0, f.staleErr
	}
	return 1, nil
}

func (f *fakeSweeperStore) ClearExpiredTyping(typingBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typingCalls++
	f.typingCutoffs = append(f.typingCutoffs, typingBefore)
	if f.typingErr != nil {
		return 0, f.typingErr
	}
	return 1, nil
}

func (f *fakeSweeperStore) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staleCalls, f.typingCalls
}

func TestCleanupUsesConfiguredWindows(t *testing.T) {
	store := &fakeSweeperStore{}
	s := NewPresenceSweeper(store, time.Minute, 5*time.Minute, time.Minute)

	before := time.Now()
	s.Cleanup()
	after := time.Now()

	if store.staleCalls != 1 || store.typingCalls != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", store.staleCalls, store.typingCalls)
	}
	staleCut := store.staleCutoffs[0]
	if staleCut.Before(before.Add(-5*time.Minute)) || staleCut.After(after.Add(-5*time.Minute)) {
		t.Fatalf("stale cutoff %v not five minutes behind now", staleCut)
	}
	typingCut := store.typingCutoffs[0]
	if typingCut.Before(before.Add(-time.Minute)) || typingCut.After(after.Add(-time.Minute)) {
		t.Fatalf("typing cutoff %v not one minute behind now", typingCut)
	}
}

func TestCleanupSwallowsStoreErrors(t *testing.T) {
	store := &fakeSweeperStore{
		staleErr:  errors.New("deadlock"),
		typingErr: errors.New("timeout"),
	}
	s := NewPresenceSweeper(store, time.Minute, 5*time.Minute, time.Minute)

	// must not panic, and the typing sweep still runs after the stale one fails
	s.Cleanup()
	if store.staleCalls != 1 || store.typingCalls != 1 {
		t.Fatalf("calls = %d/%d, want both sweeps attempted", store.staleCalls, store.typingCalls)
	}
}

func TestStartSweepsOnInterval(t *testing.T) {
	store := &fakeSweeperStore{}
	s := NewPresenceSweeper(store, 10*time.Millisecond, 5*time.Minute, time.Minute)

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for {
		stale, _ := store.counts()
		// warm-up sweep plus at least two ticks
		if stale >= 3 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d sweeps before deadline, want at least 3", stale)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopHaltsSweeping(t *testing.T) {
	store := &fakeSweeperStore{}
	s := NewPresenceSweeper(store, 10*time.Millisecond, 5*time.Minute, time.Minute)

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	stale, _ := store.counts()
	time.Sleep(50 * time.Millisecond)
	staleAfter, _ := store.counts()
	if staleAfter != stale {
		t.Fatalf("sweeps continued after Stop: %d -> %d", stale, staleAfter)
	}
}

func TestStopIsIdempotentAndSafeBeforeStart(t *testing.T) {
	s := NewPresenceSweeper(&fakeSweeperStore{}, time.Minute, 5*time.Minute, time.Minute)
	s.Stop() // never started; must not hang
	s.Stop()
}

// memPresenceStore models presence rows the way the database does: every
// operation is a single atomic update under one lock, so a heartbeat and a
// sweep can interleave but never tear a row.
type memPresenceStore struct {
	mu   sync.Mutex
	rows map[uint]*memPresenceRow
}

type memPresenceRow struct {
	status   string
	lastSeen time.Time
	typingAt *time.Time
}

func (s *memPresenceStore) Touch(userID uint, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[userID]; ok {
		r.lastSeen = at
	}
}

func (s *memPresenceStore) MarkStaleOffline(staleBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.rows {
		if r.status != domain.PresenceOffline && r.lastSeen.Before(staleBefore) {
			r.status = domain.PresenceOffline
			r.typingAt = nil
			n++
		}
	}
	return n, nil
}

func (s *memPresenceStore) ClearExpiredTyping(typingBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.rows {
		if r.typingAt != nil && r.typingAt.Before(typingBefore) {
			r.typingAt = nil
			n++
		}
	}
	return n, nil
}

func (s *memPresenceStore) status(userID uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[userID].status
}

func TestHeartbeatRacingSweepIsNotLost(t *testing.T) {
	now := time.Now()
	store := &memPresenceStore{rows: map[uint]*memPresenceRow{
		// heartbeating user: fresh now and kept fresh throughout the race
		1: {status: domain.PresenceOnline, lastSeen: now},
		// silent user: should be demoted by the first sweep
		2: {status: domain.PresenceOnline, lastSeen: now.Add(-time.Hour)},
	}}
	s := NewPresenceSweeper(store, time.Hour, 50*time.Millisecond, time.Minute)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			store.Touch(1, time.Now())
		}
	}()
	for i := 0; i < 200; i++ {
		s.Cleanup()
	}
	close(stop)
	wg.Wait()

	if got := store.status(1); got != domain.PresenceOnline {
		t.Fatalf("heartbeating user demoted to %q; the refresh was lost", got)
	}
	if got := store.status(2); got != domain.PresenceOffline {
		t.Fatalf("silent user status = %q, want OFFLINE", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	store := &fakeSweeperStore{}
	s := NewPresenceSweeper(store, time.Hour, 5*time.Minute, time.Minute)
	s.Start()
	s.Start()
	s.Stop()

	// exactly one warm-up sweep despite the double Start
	stale, _ := store.counts()
	if stale != 1 {
		t.Fatalf("warm-up sweeps = %d, want 1", stale)
	}
}
