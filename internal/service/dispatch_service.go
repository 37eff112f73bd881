package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/channel"
	"github.com/spec-kit/dedup-service/internal/config"
	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/events"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/observability"
	"github.com/spec-kit/dedup-service/internal/repository"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// ErrRetriesExhausted marks a notification whose delivery budget is spent.
// The job queue surfaces it to the dead-letter capture path.
var ErrRetriesExhausted = errors.New("notification retries exhausted")

// DispatchService turns resolutions into outbound notifications and drives
// their delivery through per-channel adapters. Delivery is asynchronous:
// creation enqueues a job, the worker calls Deliver.
type DispatchService struct {
	notifications repository.NotificationRepository
	tickets       repository.TicketRepository
	identities    repository.IdentityRepository
	adapters      *channel.AdapterSet
	surge         *SurgeService
	queue         jobs.Queue
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	cfg           config.DispatchConfig
	logger        *zap.Logger
	clock         func() time.Time
}

// DispatchDependencies bundles collaborators for the dispatch service.
type DispatchDependencies struct {
	NotificationRepo repository.NotificationRepository
	TicketRepo       repository.TicketRepository
	IdentityRepo     repository.IdentityRepository
	Adapters         *channel.AdapterSet
	Surge            *SurgeService
	Queue            jobs.Queue
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Config           config.DispatchConfig
	Logger           *zap.Logger
}

// NewDispatchService constructs the service.
func NewDispatchService(deps DispatchDependencies) *DispatchService {
	return &DispatchService{
		notifications: deps.NotificationRepo,
		tickets:       deps.TicketRepo,
		identities:    deps.IdentityRepo,
		adapters:      deps.Adapters,
		surge:         deps.Surge,
		queue:         deps.Queue,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		cfg:           deps.Config,
		logger:        deps.Logger,
		clock:         time.Now,
	}
}

// DispatchResolution creates the outbound notification for a resolved
// ticket and either enqueues delivery or parks it for batch review when
// the surge gate is tripped. The reporter must have an identity on the
// requested channel.
func (s *DispatchService) DispatchResolution(ctx context.Context, ticket *domain.Ticket, ch domain.Channel, body string, entryID *string) (*domain.Notification, error) {
	identity, err := s.identities.GetByReporterAndChannel(ctx, ticket.ReporterID, ch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewMissingDependency("no deliverable identity for reporter",
				map[string]any{"reporter_id": ticket.ReporterID, "channel": ch})
		}
		return nil, err
	}

	notification := &domain.Notification{
		TicketID:       ticket.ID,
		ContentEntryID: entryID,
		Channel:        ch,
		Recipient:      identity.Address,
		Body:           body,
		Status:         domain.NotificationStatusPending,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}

	hold, approvals, err := s.surge.ShouldHold(ctx)
	if err != nil {
		return nil, err
	}
	if hold {
		notification.Status = domain.NotificationStatusBatchReview
		if err := s.notifications.Update(ctx, notification); err != nil {
			return nil, err
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventNotificationHeld,
			TicketID: ticket.ID,
			Payload: events.NotificationHeldPayload{
				NotificationID: notification.ID,
				ApprovalsSeen:  approvals,
			},
		})
		s.metrics.RecordNotification("held")
		s.logger.Warn("resolution surge detected, notification held for review",
			zap.String("notification_id", notification.ID),
			zap.Int("approvals_seen", approvals))
		return notification, nil
	}

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Type: jobs.TypeDispatchNotification,
		Args: map[string]string{"notification_id": notification.ID},
	}); err != nil {
		return nil, err
	}
	return notification, nil
}

// DispatchEntry sends an approved content entry to its ticket's reporter
// on the ticket's originating channel.
func (s *DispatchService) DispatchEntry(ctx context.Context, entry *domain.ContentEntry) (*domain.Notification, error) {
	if entry.Status != domain.ContentEntryStatusApproved {
		return nil, apperrors.NewValidationError("only approved entries can be dispatched",
			map[string]any{"entry_id": entry.ID, "status": entry.Status})
	}
	ticket, err := s.tickets.GetByID(ctx, entry.TicketID)
	if err != nil {
		return nil, err
	}
	entryID := entry.ID
	return s.DispatchResolution(ctx, ticket, ticket.Channel, entry.Body, &entryID)
}

// Deliver performs one delivery attempt. Already sent notifications are
// skipped so re-delivered jobs stay idempotent. A failed attempt schedules
// the next one until the retry budget is spent.
func (s *DispatchService) Deliver(ctx context.Context, notificationID string) error {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}

	switch notification.Status {
	case domain.NotificationStatusSent:
		s.logger.Info("notification already sent, skipping",
			zap.String("notification_id", notification.ID))
		return nil
	case domain.NotificationStatusBatchReview:
		s.logger.Info("notification held for review, skipping",
			zap.String("notification_id", notification.ID))
		return nil
	}
	if notification.RetryCount >= s.cfg.MaxRetries {
		return fmt.Errorf("notification %s: %w", notification.ID, ErrRetriesExhausted)
	}
	if notification.LastError == domain.BatchRejectedError {
		return nil
	}

	ticket, err := s.tickets.GetByID(ctx, notification.TicketID)
	if err != nil {
		return err
	}
	adapter, err := s.adapters.Resolve(notification.Channel)
	if err != nil {
		return err
	}

	sendErr := adapter.Send(ctx, channel.Payload{
		Recipient: notification.Recipient,
		TicketKey: ticket.ExternalKey,
		Subject:   "Your report has been resolved: " + ticket.Title,
		Body:      notification.Body,
	})

	now := s.clock().UTC()
	if sendErr == nil {
		notification.Status = domain.NotificationStatusSent
		notification.LastError = ""
		notification.NextAttemptAt = nil
		notification.DeliveredAt = &now
		if err := s.notifications.Update(ctx, notification); err != nil {
			return err
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventNotificationSent,
			TicketID: notification.TicketID,
			Payload: events.NotificationSentPayload{
				NotificationID: notification.ID,
				Channel:        notification.Channel,
				Recipient:      notification.Recipient,
			},
		})
		s.metrics.RecordNotification("sent")
		s.logger.Info("notification delivered",
			zap.String("notification_id", notification.ID),
			zap.String("channel", string(notification.Channel)))
		return nil
	}

	notification.Status = domain.NotificationStatusFailed
	notification.RetryCount++
	notification.LastError = sendErr.Error()
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventNotificationFailed,
		TicketID: notification.TicketID,
		Payload: events.NotificationFailedPayload{
			NotificationID: notification.ID,
			Channel:        notification.Channel,
			RetryCount:     notification.RetryCount,
			Error:          sendErr.Error(),
		},
	})

	if notification.RetryCount < s.cfg.MaxRetries {
		next := now.Add(s.cfg.RetryBackoff())
		notification.NextAttemptAt = &next
		if err := s.notifications.Update(ctx, notification); err != nil {
			return err
		}
		s.metrics.RecordNotification("retry_scheduled")
		s.logger.Warn("delivery failed, retry scheduled",
			zap.String("notification_id", notification.ID),
			zap.Int("retry_count", notification.RetryCount),
			zap.Time("next_attempt_at", next),
			zap.Error(sendErr))
		// the sweep also picks up due rows; the direct enqueue keeps the
		// common path prompt
		if err := s.queue.EnqueueIn(ctx, jobs.Job{
			Type: jobs.TypeRedeliverNotification,
			Args: map[string]string{"notification_id": notification.ID},
		}, s.cfg.RetryBackoff()); err != nil {
			s.logger.Error("failed to schedule redelivery",
				zap.String("notification_id", notification.ID), zap.Error(err))
		}
		return nil
	}

	notification.NextAttemptAt = nil
	if err := s.notifications.Update(ctx, notification); err != nil {
		return err
	}
	s.metrics.RecordNotification("failed")
	return fmt.Errorf("notification %s: %w: %s", notification.ID, ErrRetriesExhausted, sendErr.Error())
}

// SweepDue re-enqueues failed notifications whose retry time has come.
// Runs on a schedule; safe to run concurrently with direct redelivery
// because Deliver skips anything already sent.
func (s *DispatchService) SweepDue(ctx context.Context, limit int) (int, error) {
	due, err := s.notifications.ListDue(ctx, s.clock().UTC(), limit)
	if err != nil {
		return 0, err
	}
	for _, notification := range due {
		if err := s.queue.Enqueue(ctx, jobs.Job{
			Type: jobs.TypeRedeliverNotification,
			Args: map[string]string{"notification_id": notification.ID},
		}); err != nil {
			return 0, err
		}
	}
	if len(due) > 0 {
		s.logger.Info("redelivery sweep enqueued notifications", zap.Int("count", len(due)))
	}
	return len(due), nil
}
