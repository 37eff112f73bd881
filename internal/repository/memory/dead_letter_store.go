package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// DeadLetterStore is an in-memory repository.DeadLetterRepository.
type DeadLetterStore struct {
	mu      sync.RWMutex
	records map[string]domain.DeadLetterRecord
}

// NewDeadLetterStore constructs an empty store.
func NewDeadLetterStore() *DeadLetterStore {
	return &DeadLetterStore{records: make(map[string]domain.DeadLetterRecord)}
}

var _ repository.DeadLetterRepository = (*DeadLetterStore)(nil)

func (s *DeadLetterStore) Create(ctx context.Context, record *domain.DeadLetterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = newID()
	}
	if record.FailedAt.IsZero() {
		record.FailedAt = now()
	}
	record.UpdatedAt = now()
	s.records[record.ID] = cloneDeadLetter(*record)
	return nil
}

func (s *DeadLetterStore) UpdateStatus(ctx context.Context, id string, status domain.DeadLetterStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	record.Status = status
	record.UpdatedAt = now()
	s.records[id] = record
	return nil
}

func (s *DeadLetterStore) GetByID(ctx context.Context, id string) (*domain.DeadLetterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneDeadLetter(record)
	return &out, nil
}

func (s *DeadLetterStore) List(ctx context.Context, status *domain.DeadLetterStatus, limit, offset int) ([]domain.DeadLetterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.DeadLetterRecord
	for _, record := range s.records {
		if status != nil && record.Status != *status {
			continue
		}
		result = append(result, cloneDeadLetter(record))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FailedAt.After(result[j].FailedAt)
	})
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneDeadLetter(r domain.DeadLetterRecord) domain.DeadLetterRecord {
	if r.Args != nil {
		args := make(map[string]string, len(r.Args))
		for k, v := range r.Args {
			args[k] = v
		}
		r.Args = args
	}
	return r
}
