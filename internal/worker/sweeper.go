package worker

import (
	"context"
	"fmt"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/observability"
	"github.com/spec-kit/dedup-service/internal/service"
)

const sweepBatchSize = 100

// statsSpec is the fixed cadence for the job-counter log line.
const statsSpec = "@every 5m"

// Sweeper periodically re-enqueues failed notifications whose retry time
// has passed. It is the safety net behind the dispatcher's direct
// scheduling: a crashed process loses its timers, the sweep does not.
// It also emits a periodic job-counter snapshot.
type Sweeper struct {
	cron     *rcron.Cron
	dispatch *service.DispatchService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewSweeper constructs a stopped sweeper.
func NewSweeper(dispatch *service.DispatchService, metrics *observability.Metrics, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:     rcron.New(),
		dispatch: dispatch,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start schedules the sweep and begins running it.
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.dispatch.SweepDue(context.Background(), sweepBatchSize); err != nil {
			s.logger.Error("redelivery sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule redelivery sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(statsSpec, func() {
		s.logger.Info("job counters", zap.Any("counters", s.metrics.Snapshot()))
	}); err != nil {
		return fmt.Errorf("schedule stats log: %w", err)
	}
	s.cron.Start()
	s.logger.Info("redelivery sweep scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
