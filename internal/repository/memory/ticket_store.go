package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// TicketStore is an in-memory repository.TicketRepository.
type TicketStore struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

// NewTicketStore constructs an empty store.
func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]domain.Ticket)}
}

var _ repository.TicketRepository = (*TicketStore)(nil)

func (s *TicketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// same partial-uniqueness rule as the tickets table: empty ids never
	// collide
	if ticket.ExternalID != "" {
		for _, existing := range s.tickets {
			if existing.Channel == ticket.Channel && existing.ExternalID == ticket.ExternalID {
				return fmt.Errorf("ticket for %s/%s already exists", ticket.Channel, ticket.ExternalID)
			}
		}
	}
	if ticket.ID == "" {
		ticket.ID = newID()
	}
	ticket.CreatedAt = now()
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (s *TicketStore) Update(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	ticket.UpdatedAt = now()
	s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (s *TicketStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (s *TicketStore) GetByChannelExternalID(ctx context.Context, channel domain.Channel, externalID string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ticket := range s.tickets {
		if ticket.Channel == channel && ticket.ExternalID == externalID {
			out := cloneTicket(ticket)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *TicketStore) ListCandidates(ctx context.Context, filter repository.CandidateFilter) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.ID == filter.ExcludeID || !ticket.HasEmbedding() || ticket.CreatedAt.Before(filter.Since) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *TicketStore) ListByGroup(ctx context.Context, groupID string) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.GroupID != nil && *ticket.GroupID == groupID {
			result = append(result, cloneTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Embedding = cloneFloats(t.Embedding)
	t.GroupID = cloneStringPtr(t.GroupID)
	t.ResolvedAt = cloneTimePtr(t.ResolvedAt)
	return t
}
