package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// NotificationStore is an in-memory repository.NotificationRepository.
type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]domain.Notification
}

// NewNotificationStore constructs an empty store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: make(map[string]domain.Notification)}
}

var _ repository.NotificationRepository = (*NotificationStore)(nil)

func (s *NotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if notification.ID == "" {
		notification.ID = newID()
	}
	notification.CreatedAt = now()
	notification.UpdatedAt = notification.CreatedAt
	s.notifications[notification.ID] = cloneNotification(*notification)
	return nil
}

func (s *NotificationStore) Update(ctx context.Context, notification *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[notification.ID]; !ok {
		return ErrNotFound
	}
	notification.UpdatedAt = now()
	s.notifications[notification.ID] = cloneNotification(*notification)
	return nil
}

func (s *NotificationStore) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notification, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneNotification(notification)
	return &out, nil
}

func (s *NotificationStore) ListByStatus(ctx context.Context, status domain.NotificationStatus, limit, offset int) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Notification
	for _, notification := range s.notifications {
		if notification.Status == status {
			result = append(result, cloneNotification(notification))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
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

func (s *NotificationStore) ListDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Notification
	for _, notification := range s.notifications {
		if notification.Status != domain.NotificationStatusFailed || notification.NextAttemptAt == nil {
			continue
		}
		if notification.NextAttemptAt.After(cutoff) {
			continue
		}
		result = append(result, cloneNotification(notification))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextAttemptAt.Before(*result[j].NextAttemptAt)
	})
	if limit <= 0 {
		limit = 50
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneNotification(n domain.Notification) domain.Notification {
	n.ContentEntryID = cloneStringPtr(n.ContentEntryID)
	n.NextAttemptAt = cloneTimePtr(n.NextAttemptAt)
	n.DeliveredAt = cloneTimePtr(n.DeliveredAt)
	return n
}
