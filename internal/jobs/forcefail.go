package jobs

import (
	"context"
	"sync"
	"time"
)

// FlagStore holds named, TTL-bounded, one-shot force-fail switches. Arm
// sets a switch; the first CheckAndClear afterwards both observes it and
// consumes it. Purely a chaos/test hook for exercising the dead-letter
// path on demand.
type FlagStore interface {
	Arm(ctx context.Context, jobType string, ttl time.Duration) error
	Disarm(ctx context.Context, jobType string) error
	CheckAndClear(ctx context.Context, jobType string) (bool, error)
	Armed(ctx context.Context, jobType string) (bool, error)
}

// MemoryFlagStore is a process-local FlagStore.
type MemoryFlagStore struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	clock     func() time.Time
}

// NewMemoryFlagStore constructs an empty store.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{
		deadlines: make(map[string]time.Time),
		clock:     time.Now,
	}
}

var _ FlagStore = (*MemoryFlagStore)(nil)

// Arm sets the switch for the given TTL.
func (s *MemoryFlagStore) Arm(ctx context.Context, jobType string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[jobType] = s.clock().Add(ttl)
	return nil
}

// Disarm clears the switch.
func (s *MemoryFlagStore) Disarm(ctx context.Context, jobType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, jobType)
	return nil
}

// CheckAndClear consumes the switch if armed and unexpired.
func (s *MemoryFlagStore) CheckAndClear(ctx context.Context, jobType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.deadlines[jobType]
	if !ok {
		return false, nil
	}
	delete(s.deadlines, jobType)
	if s.clock().After(deadline) {
		return false, nil
	}
	return true, nil
}

// Armed reports the switch state without consuming it.
func (s *MemoryFlagStore) Armed(ctx context.Context, jobType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.deadlines[jobType]
	if !ok {
		return false, nil
	}
	if s.clock().After(deadline) {
		delete(s.deadlines, jobType)
		return false, nil
	}
	return true, nil
}
