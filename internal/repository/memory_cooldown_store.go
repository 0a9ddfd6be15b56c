package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

type cooldownKey struct {
	userID string
	kind   domain.ActionKind
}

// MemoryCooldownStore keeps cooldowns in process memory.
// A restart forgets them, which resets every cooldown.
type MemoryCooldownStore struct {
	mu      sync.Mutex
	entries map[cooldownKey]time.Time
	cleanup time.Duration
	stopCh  chan struct{}
	now     func() time.Time
}

// NewMemoryCooldownStore creates a store that prunes expired entries every cleanup interval.
// A non-positive interval disables the background pruning.
func NewMemoryCooldownStore(cleanup time.Duration) *MemoryCooldownStore {
	s := &MemoryCooldownStore{
		entries: make(map[cooldownKey]time.Time),
		cleanup: cleanup,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	if cleanup > 0 {
		go s.cleanupLoop()
	}
	return s
}

func (s *MemoryCooldownStore) NotBefore(ctx context.Context, userID string, kind domain.ActionKind) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.entries[cooldownKey{userID, kind}]
	return t, ok, nil
}

func (s *MemoryCooldownStore) SetNotBefore(ctx context.Context, userID string, kind domain.ActionKind, notBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cooldownKey{userID, kind}] = notBefore
	return nil
}

// Len returns the number of tracked cooldowns
func (s *MemoryCooldownStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop ends the background pruning
func (s *MemoryCooldownStore) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

func (s *MemoryCooldownStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.prune()
		case <-s.stopCh:
			return
		}
	}
}

// prune removes cooldowns that have already expired
func (s *MemoryCooldownStore) prune() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.entries {
		if !now.Before(t) {
			delete(s.entries, k)
		}
	}
}

var _ CooldownStore = (*MemoryCooldownStore)(nil)
