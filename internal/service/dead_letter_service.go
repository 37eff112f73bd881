package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/repository"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// DeadLetterService exposes operator triage over terminally failed jobs.
// Retry re-enqueues the captured job as-is; handlers are idempotent so a
// replay of work that partially completed is safe.
type DeadLetterService struct {
	records repository.DeadLetterRepository
	queue   jobs.Queue
	logger  *zap.Logger
}

// DeadLetterDependencies bundles collaborators for the dead-letter service.
type DeadLetterDependencies struct {
	DeadLetterRepo repository.DeadLetterRepository
	Queue          jobs.Queue
	Logger         *zap.Logger
}

// NewDeadLetterService constructs the service.
func NewDeadLetterService(deps DeadLetterDependencies) *DeadLetterService {
	return &DeadLetterService{
		records: deps.DeadLetterRepo,
		queue:   deps.Queue,
		logger:  deps.Logger,
	}
}

// List returns dead letters, optionally filtered by triage status.
func (s *DeadLetterService) List(ctx context.Context, status *domain.DeadLetterStatus, limit, offset int) ([]domain.DeadLetterRecord, error) {
	return s.records.List(ctx, status, limit, offset)
}

// Get returns one dead letter by id.
func (s *DeadLetterService) Get(ctx context.Context, id string) (*domain.DeadLetterRecord, error) {
	return s.getUnresolvedOrAny(ctx, id, false)
}

// Resolve marks a dead letter as handled without replaying it.
func (s *DeadLetterService) Resolve(ctx context.Context, id string) (*domain.DeadLetterRecord, error) {
	record, err := s.getUnresolvedOrAny(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.records.UpdateStatus(ctx, record.ID, domain.DeadLetterStatusResolved); err != nil {
		return nil, err
	}
	record.Status = domain.DeadLetterStatusResolved
	s.logger.Info("dead letter resolved", zap.String("dead_letter_id", record.ID))
	return record, nil
}

// Retry re-enqueues the failed job and marks the record retried.
func (s *DeadLetterService) Retry(ctx context.Context, id string) (*domain.DeadLetterRecord, error) {
	record, err := s.getUnresolvedOrAny(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Type:  record.JobType,
		Queue: record.Queue,
		Args:  record.Args,
	}); err != nil {
		return nil, err
	}
	if err := s.records.UpdateStatus(ctx, record.ID, domain.DeadLetterStatusRetried); err != nil {
		return nil, err
	}
	record.Status = domain.DeadLetterStatusRetried
	s.logger.Info("dead letter retried",
		zap.String("dead_letter_id", record.ID),
		zap.String("job_type", record.JobType))
	return record, nil
}

func (s *DeadLetterService) getUnresolvedOrAny(ctx context.Context, id string, requireUnresolved bool) (*domain.DeadLetterRecord, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("dead letter", map[string]any{"dead_letter_id": id})
		}
		return nil, err
	}
	if requireUnresolved && record.Status != domain.DeadLetterStatusUnresolved {
		// resolve and retry are one-shot; a second operator acting on a
		// stale list gets a conflict, not a double replay
		return nil, apperrors.NewConflict("dead letter already handled",
			map[string]any{"dead_letter_id": id, "status": record.Status})
	}
	return record, nil
}
