package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Queue accepts jobs for at-least-once background execution with an
// optional delay. Implementations own their retry policy and invoke a
// death callback once retries are exhausted.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	EnqueueIn(ctx context.Context, job Job, delay time.Duration) error
}

// DeathHandler is invoked once the queue's own retries are exhausted.
type DeathHandler func(ctx context.Context, job Job, err error)

// QueueConfig tunes the in-process queue.
type QueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// InProcessQueue is a goroutine-pool queue with bounded retry and a death
// hook. It provides the host-queue contract the supervisor relies on;
// delivery is at-least-once within the process lifetime.
type InProcessQueue struct {
	cfg      QueueConfig
	registry *Registry
	onDeath  DeathHandler
	logger   *zap.Logger

	items      chan queueItem
	mu         sync.Mutex
	stopped    bool
	timers     map[*time.Timer]struct{}
	submitters sync.WaitGroup
	wg         sync.WaitGroup
}

type queueItem struct {
	job     Job
	attempt int
}

// NewInProcessQueue constructs the queue. The death handler may be nil.
func NewInProcessQueue(cfg QueueConfig, registry *Registry, onDeath DeathHandler, logger *zap.Logger) *InProcessQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &InProcessQueue{
		cfg:      cfg,
		registry: registry,
		onDeath:  onDeath,
		logger:   logger,
		items:    make(chan queueItem, 1024),
		timers:   make(map[*time.Timer]struct{}),
	}
}

// Start launches the worker pool. Workers drain until Stop is called.
func (q *InProcessQueue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop prevents new submissions, cancels pending delays, and waits for
// in-flight jobs to finish.
func (q *InProcessQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	for timer := range q.timers {
		timer.Stop()
	}
	q.timers = map[*time.Timer]struct{}{}
	q.mu.Unlock()

	// workers keep draining until the channel closes, so blocked senders
	// finish before the close
	q.submitters.Wait()
	close(q.items)
	q.wg.Wait()
}

// Enqueue submits a job for immediate execution.
func (q *InProcessQueue) Enqueue(ctx context.Context, job Job) error {
	return q.submit(queueItem{job: q.normalize(job)})
}

// EnqueueIn submits a job to run after the given delay. The delay is a
// scheduled re-enqueue, not a worker-slot sleep.
func (q *InProcessQueue) EnqueueIn(ctx context.Context, job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, job)
	}
	item := queueItem{job: q.normalize(job)}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return nil
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		_ = q.submit(item)
	})
	q.timers[timer] = struct{}{}
	return nil
}

func (q *InProcessQueue) normalize(job Job) Job {
	if job.Queue == "" {
		job.Queue = DefaultQueue
	}
	return job
}

func (q *InProcessQueue) submit(item queueItem) error {
	// Register as a submitter under the lock; Stop waits for registered
	// submitters before closing the channel. The send itself happens
	// outside the critical section so a full channel never serializes
	// other producers.
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.submitters.Add(1)
	q.mu.Unlock()
	defer q.submitters.Done()

	q.items <- item
	return nil
}

func (q *InProcessQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for item := range q.items {
		q.run(ctx, item)
	}
}

func (q *InProcessQueue) run(ctx context.Context, item queueItem) {
	handler, err := q.registry.Resolve(item.job.Type)
	if err != nil {
		q.logger.Error("unresolvable job type", zap.String("job_type", item.job.Type), zap.Error(err))
		if q.onDeath != nil {
			q.onDeath(ctx, item.job, err)
		}
		return
	}

	if err := handler(ctx, item.job); err != nil {
		if item.attempt < q.cfg.MaxRetries {
			next := queueItem{job: item.job, attempt: item.attempt + 1}
			q.logger.Warn("job failed, scheduling retry",
				zap.String("job_type", item.job.Type),
				zap.Int("attempt", next.attempt),
				zap.Error(err))
			q.requeueLater(next)
			return
		}
		q.logger.Error("job retries exhausted",
			zap.String("job_type", item.job.Type),
			zap.Int("attempts", item.attempt+1),
			zap.Error(err))
		if q.onDeath != nil {
			q.onDeath(ctx, item.job, err)
		}
	}
}

func (q *InProcessQueue) requeueLater(item queueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(q.cfg.RetryDelay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		_ = q.submit(item)
	})
	q.timers[timer] = struct{}{}
}
