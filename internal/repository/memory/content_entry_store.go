package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// ContentEntryStore is an in-memory repository.ContentEntryRepository.
type ContentEntryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.ContentEntry
}

// NewContentEntryStore constructs an empty store.
func NewContentEntryStore() *ContentEntryStore {
	return &ContentEntryStore{entries: make(map[string]domain.ContentEntry)}
}

var _ repository.ContentEntryRepository = (*ContentEntryStore)(nil)

func (s *ContentEntryStore) Create(ctx context.Context, entry *domain.ContentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = now()
	entry.UpdatedAt = entry.CreatedAt
	s.entries[entry.ID] = cloneContentEntry(*entry)
	return nil
}

func (s *ContentEntryStore) Update(ctx context.Context, entry *domain.ContentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return ErrNotFound
	}
	entry.UpdatedAt = now()
	s.entries[entry.ID] = cloneContentEntry(*entry)
	return nil
}

func (s *ContentEntryStore) GetByID(ctx context.Context, id string) (*domain.ContentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneContentEntry(entry)
	return &out, nil
}

func (s *ContentEntryStore) ListApprovedByTicket(ctx context.Context, ticketID string) ([]domain.ContentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ContentEntry
	for _, entry := range s.entries {
		if entry.TicketID == ticketID && entry.Status == domain.ContentEntryStatusApproved {
			result = append(result, cloneContentEntry(entry))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *ContentEntryStore) ListApprovedSince(ctx context.Context, since time.Time) ([]domain.ContentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ContentEntry
	for _, entry := range s.entries {
		if entry.Status != domain.ContentEntryStatusApproved || entry.ApprovedAt == nil {
			continue
		}
		if entry.ApprovedAt.Before(since) {
			continue
		}
		result = append(result, cloneContentEntry(entry))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ApprovedAt.Before(*result[j].ApprovedAt)
	})
	return result, nil
}

func cloneContentEntry(e domain.ContentEntry) domain.ContentEntry {
	e.ApprovedAt = cloneTimePtr(e.ApprovedAt)
	return e
}
