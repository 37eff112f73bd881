package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestQueueRunsRegisteredHandler(t *testing.T) {
	registry := NewRegistry()
	var mu sync.Mutex
	var seen []string
	registry.Register("test.echo", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Arg("value"))
		return nil
	})

	queue := NewInProcessQueue(QueueConfig{Workers: 2, MaxRetries: 0, RetryDelay: time.Millisecond}, registry, nil, zap.NewNop())
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(context.Background(), Job{Type: "test.echo", Args: map[string]string{"value": "hello"}}))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	})
	mu.Lock()
	assert.Equal(t, "hello", seen[0])
	mu.Unlock()
}

func TestQueueRetriesThenSucceeds(t *testing.T) {
	registry := NewRegistry()
	var mu sync.Mutex
	attempts := 0
	registry.Register("test.flaky", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	var deaths int
	onDeath := func(ctx context.Context, job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		deaths++
	}

	queue := NewInProcessQueue(QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond}, registry, onDeath, zap.NewNop())
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(context.Background(), Job{Type: "test.flaky"}))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 3
	})
	mu.Lock()
	assert.Zero(t, deaths)
	mu.Unlock()
}

func TestQueueDeathAfterRetriesExhausted(t *testing.T) {
	registry := NewRegistry()
	var mu sync.Mutex
	attempts := 0
	registry.Register("test.doomed", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("permanent")
	})

	var deadJobs []Job
	onDeath := func(ctx context.Context, job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		deadJobs = append(deadJobs, job)
	}

	queue := NewInProcessQueue(QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond}, registry, onDeath, zap.NewNop())
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(context.Background(), Job{Type: "test.doomed", Args: map[string]string{"k": "v"}}))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(deadJobs) == 1
	})
	mu.Lock()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "test.doomed", deadJobs[0].Type)
	assert.Equal(t, DefaultQueue, deadJobs[0].Queue)
	mu.Unlock()
}

func TestQueueUnresolvableTypeGoesToDeath(t *testing.T) {
	registry := NewRegistry()
	var mu sync.Mutex
	var deaths int
	onDeath := func(ctx context.Context, job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		deaths++
	}

	queue := NewInProcessQueue(QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond}, registry, onDeath, zap.NewNop())
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(context.Background(), Job{Type: "test.unknown"}))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return deaths == 1
	})
}

func TestQueueEnqueueInDelays(t *testing.T) {
	registry := NewRegistry()
	var mu sync.Mutex
	var ranAt time.Time
	registry.Register("test.delayed", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		ranAt = time.Now()
		return nil
	})

	queue := NewInProcessQueue(QueueConfig{Workers: 1, MaxRetries: 0, RetryDelay: time.Millisecond}, registry, nil, zap.NewNop())
	queue.Start(context.Background())
	defer queue.Stop()

	start := time.Now()
	require.NoError(t, queue.EnqueueIn(context.Background(), Job{Type: "test.delayed"}, 50*time.Millisecond))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !ranAt.IsZero()
	})
	mu.Lock()
	assert.GreaterOrEqual(t, ranAt.Sub(start), 40*time.Millisecond)
	mu.Unlock()
}

func TestQueueStopIsIdempotentAndRejectsLateSubmits(t *testing.T) {
	registry := NewRegistry()
	registry.Register("test.noop", func(ctx context.Context, job Job) error { return nil })

	queue := NewInProcessQueue(QueueConfig{Workers: 1, MaxRetries: 0, RetryDelay: time.Millisecond}, registry, nil, zap.NewNop())
	queue.Start(context.Background())

	queue.Stop()
	queue.Stop()

	// submissions after stop are dropped, not panics
	assert.NoError(t, queue.Enqueue(context.Background(), Job{Type: "test.noop"}))
	assert.NoError(t, queue.EnqueueIn(context.Background(), Job{Type: "test.noop"}, time.Millisecond))
}

func TestQueueFullChannelDoesNotBlockOtherProducers(t *testing.T) {
	registry := NewRegistry()
	registry.Register("test.filler", func(ctx context.Context, job Job) error { return nil })

	queue := NewInProcessQueue(QueueConfig{Workers: 1, MaxRetries: 0, RetryDelay: time.Millisecond}, registry, nil, zap.NewNop())

	// no workers yet: fill the buffer, then leave one producer blocked on
	// the send
	for i := 0; i < cap(queue.items); i++ {
		require.NoError(t, queue.Enqueue(context.Background(), Job{Type: "test.filler"}))
	}
	blocked := make(chan struct{})
	go func() {
		_ = queue.Enqueue(context.Background(), Job{Type: "test.filler"})
		close(blocked)
	}()
	time.Sleep(20 * time.Millisecond)

	// a delayed submission must not queue up behind the blocked sender
	done := make(chan struct{})
	go func() {
		_ = queue.EnqueueIn(context.Background(), Job{Type: "test.filler"}, time.Hour)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delayed enqueue serialized behind a full channel")
	}

	queue.Start(context.Background())
	<-blocked
	queue.Stop()
}
