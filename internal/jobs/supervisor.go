package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/observability"
	"github.com/spec-kit/dedup-service/internal/repository"
)

// Supervisor wraps every background execution with structured logging, the
// force-fail check, and dead-letter capture. It is composed as middleware
// around each registered handler; it also serves as the queue's death hook.
type Supervisor struct {
	flags       FlagStore
	deadLetters repository.DeadLetterRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewSupervisor constructs the supervisor.
func NewSupervisor(flags FlagStore, deadLetters repository.DeadLetterRepository, metrics *observability.Metrics, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		flags:       flags,
		deadLetters: deadLetters,
		metrics:     metrics,
		logger:      logger,
	}
}

// Middleware returns the wrapping decorator applied to every handler.
func (s *Supervisor) Middleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, job Job) error {
			start := time.Now()
			s.logger.Info("job started",
				zap.String("job_type", job.Type),
				zap.String("queue", job.Queue),
				zap.Any("args", job.Args))
			s.metrics.RecordJobStarted(job.Type)

			armed, err := s.flags.CheckAndClear(ctx, job.Type)
			if err != nil {
				s.logger.Warn("force-fail check failed", zap.String("job_type", job.Type), zap.Error(err))
			}
			if armed {
				// Capture directly and swallow: propagating would let the
				// queue's retry mask the deliberately induced failure.
				forced := fmt.Errorf("forced failure for job type %s", job.Type)
				s.logger.Warn("force-fail switch armed, failing job",
					zap.String("job_type", job.Type))
				s.capture(ctx, job, "ForcedFailure", forced)
				s.metrics.RecordJobFailed(job.Type)
				return nil
			}

			if err := next(ctx, job); err != nil {
				s.logger.Error("job failed",
					zap.String("job_type", job.Type),
					zap.String("queue", job.Queue),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err))
				s.metrics.RecordJobFailed(job.Type)
				return err
			}

			s.logger.Info("job completed",
				zap.String("job_type", job.Type),
				zap.Duration("duration", time.Since(start)))
			s.metrics.RecordJobCompleted(job.Type)
			return nil
		}
	}
}

// OnDeath records a terminal failure once the queue's retries are exhausted.
func (s *Supervisor) OnDeath(ctx context.Context, job Job, err error) {
	s.capture(ctx, job, fmt.Sprintf("%T", err), err)
}

func (s *Supervisor) capture(ctx context.Context, job Job, errorClass string, cause error) {
	record := &domain.DeadLetterRecord{
		JobType:    job.Type,
		Args:       job.Args,
		ErrorClass: errorClass,
		ErrorText:  cause.Error(),
		Queue:      job.Queue,
		Status:     domain.DeadLetterStatusUnresolved,
		FailedAt:   time.Now().UTC(),
	}
	if err := s.deadLetters.Create(ctx, record); err != nil {
		s.logger.Error("failed to persist dead letter",
			zap.String("job_type", job.Type),
			zap.Error(err))
		return
	}
	s.logger.Warn("dead letter recorded",
		zap.String("dead_letter_id", record.ID),
		zap.String("job_type", job.Type),
		zap.String("error_class", errorClass))
}
