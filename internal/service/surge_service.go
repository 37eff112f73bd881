package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/config"
	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/events"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/repository"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// SurgeService detects mass-resolution surges and manages the batch-review
// queue they produce. When more than the configured number of content
// approvals land inside the window, outbound notifications are held for an
// operator instead of being delivered.
type SurgeService struct {
	content       repository.ContentEntryRepository
	notifications repository.NotificationRepository
	queue         jobs.Queue
	dispatcher    events.Dispatcher
	cfg           config.SurgeConfig
	logger        *zap.Logger
	clock         func() time.Time
}

// SurgeDependencies bundles collaborators for the surge service.
type SurgeDependencies struct {
	ContentRepo      repository.ContentEntryRepository
	NotificationRepo repository.NotificationRepository
	Queue            jobs.Queue
	Dispatcher       events.Dispatcher
	Config           config.SurgeConfig
	Logger           *zap.Logger
}

// NewSurgeService constructs the service.
func NewSurgeService(deps SurgeDependencies) *SurgeService {
	return &SurgeService{
		content:       deps.ContentRepo,
		notifications: deps.NotificationRepo,
		queue:         deps.Queue,
		dispatcher:    deps.Dispatcher,
		cfg:           deps.Config,
		logger:        deps.Logger,
		clock:         time.Now,
	}
}

// ShouldHold reports whether delivery should be held for batch review. The
// gate trips when strictly more than the threshold of content approvals
// fall inside any span of the configured window length. It also returns the
// number of recent approvals considered, for the audit event.
func (s *SurgeService) ShouldHold(ctx context.Context) (bool, int, error) {
	window := s.cfg.Window()
	now := s.clock().UTC()
	entries, err := s.content.ListApprovedSince(ctx, now.Add(-2*window))
	if err != nil {
		return false, 0, err
	}

	times := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		if entry.ApprovedAt != nil {
			times = append(times, *entry.ApprovedAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// threshold+1 approvals inside one window means "more than threshold"
	for i := 0; i+s.cfg.ApprovalThreshold < len(times); i++ {
		if times[i+s.cfg.ApprovalThreshold].Sub(times[i]) <= window {
			return true, len(times), nil
		}
	}
	return false, len(times), nil
}

// ListHeld returns notifications waiting for batch review, oldest first.
func (s *SurgeService) ListHeld(ctx context.Context, limit, offset int) ([]domain.Notification, error) {
	return s.notifications.ListByStatus(ctx, domain.NotificationStatusBatchReview, limit, offset)
}

// ApproveHeld releases a held notification back into delivery.
func (s *SurgeService) ApproveHeld(ctx context.Context, notificationID string) (*domain.Notification, error) {
	notification, err := s.getHeld(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	notification.Status = domain.NotificationStatusPending
	notification.LastError = ""
	if err := s.notifications.Update(ctx, notification); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Type: jobs.TypeDispatchNotification,
		Args: map[string]string{"notification_id": notification.ID},
	}); err != nil {
		return nil, err
	}
	s.logger.Info("held notification approved",
		zap.String("notification_id", notification.ID))
	return notification, nil
}

// ApproveAllHeld releases every held notification and returns how many.
func (s *SurgeService) ApproveAllHeld(ctx context.Context) (int, error) {
	return s.forEachHeld(ctx, func(id string) error {
		_, err := s.ApproveHeld(ctx, id)
		return err
	})
}

// RejectAllHeld discards every held notification and returns how many.
func (s *SurgeService) RejectAllHeld(ctx context.Context) (int, error) {
	return s.forEachHeld(ctx, func(id string) error {
		_, err := s.RejectHeld(ctx, id)
		return err
	})
}

const heldPageSize = 200

func (s *SurgeService) forEachHeld(ctx context.Context, apply func(id string) error) (int, error) {
	applied := 0
	for {
		held, err := s.ListHeld(ctx, heldPageSize, 0)
		if err != nil {
			return applied, err
		}
		if len(held) == 0 {
			return applied, nil
		}
		for _, notification := range held {
			if err := apply(notification.ID); err != nil {
				return applied, err
			}
			applied++
		}
		// applying moved the rows out of BATCH_REVIEW, so offset stays 0
		if len(held) < heldPageSize {
			return applied, nil
		}
	}
}

// RejectHeld permanently discards a held notification. The row stays as an
// audit record but is never retried.
func (s *SurgeService) RejectHeld(ctx context.Context, notificationID string) (*domain.Notification, error) {
	notification, err := s.getHeld(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	notification.Status = domain.NotificationStatusFailed
	notification.LastError = domain.BatchRejectedError
	notification.NextAttemptAt = nil
	if err := s.notifications.Update(ctx, notification); err != nil {
		return nil, err
	}
	s.logger.Info("held notification rejected",
		zap.String("notification_id", notification.ID))
	return notification, nil
}

func (s *SurgeService) getHeld(ctx context.Context, notificationID string) (*domain.Notification, error) {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return nil, err
	}
	if notification.Status != domain.NotificationStatusBatchReview {
		return nil, apperrors.NewConflict("notification is not held for review",
			map[string]any{"notification_id": notificationID, "status": notification.Status})
	}
	return notification, nil
}
