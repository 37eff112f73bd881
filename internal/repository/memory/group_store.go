package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// GroupStore is an in-memory repository.GroupRepository.
type GroupStore struct {
	mu     sync.RWMutex
	groups map[string]domain.TicketGroup
}

// NewGroupStore constructs an empty store.
func NewGroupStore() *GroupStore {
	return &GroupStore{groups: make(map[string]domain.TicketGroup)}
}

var _ repository.GroupRepository = (*GroupStore)(nil)

func (s *GroupStore) Create(ctx context.Context, group *domain.TicketGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if group.ID == "" {
		group.ID = newID()
	}
	group.CreatedAt = now()
	group.UpdatedAt = group.CreatedAt
	s.groups[group.ID] = cloneGroup(*group)
	return nil
}

func (s *GroupStore) Update(ctx context.Context, group *domain.TicketGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; !ok {
		return ErrNotFound
	}
	group.UpdatedAt = now()
	s.groups[group.ID] = cloneGroup(*group)
	return nil
}

func (s *GroupStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *GroupStore) GetByID(ctx context.Context, id string) (*domain.TicketGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneGroup(group)
	return &out, nil
}

func (s *GroupStore) List(ctx context.Context, limit, offset int) ([]domain.TicketGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.TicketGroup, 0, len(s.groups))
	for _, group := range s.groups {
		result = append(result, cloneGroup(group))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if limit <= 0 {
		limit = 20
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

func cloneGroup(g domain.TicketGroup) domain.TicketGroup {
	g.MemberIDs = cloneStrings(g.MemberIDs)
	g.ResolvedAt = cloneTimePtr(g.ResolvedAt)
	if g.ResolvedChannel != nil {
		ch := *g.ResolvedChannel
		g.ResolvedChannel = &ch
	}
	return g
}
