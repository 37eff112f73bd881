package memory

import (
	"context"
	"sync"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// IdentityStore is an in-memory repository.IdentityRepository.
type IdentityStore struct {
	mu         sync.RWMutex
	identities map[string]domain.ChannelIdentity
}

// NewIdentityStore constructs an empty store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{identities: make(map[string]domain.ChannelIdentity)}
}

var _ repository.IdentityRepository = (*IdentityStore)(nil)

func identityKey(reporterID string, channel domain.Channel) string {
	return reporterID + "|" + string(channel)
}

func (s *IdentityStore) Upsert(ctx context.Context, identity *domain.ChannelIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey(identity.ReporterID, identity.Channel)
	if existing, ok := s.identities[key]; ok {
		identity.ID = existing.ID
	} else if identity.ID == "" {
		identity.ID = newID()
	}
	s.identities[key] = *identity
	return nil
}

func (s *IdentityStore) GetByReporterAndChannel(ctx context.Context, reporterID string, channel domain.Channel) (*domain.ChannelIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[identityKey(reporterID, channel)]
	if !ok {
		return nil, ErrNotFound
	}
	out := identity
	return &out, nil
}
