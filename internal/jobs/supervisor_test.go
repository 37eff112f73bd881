package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/observability"
	"github.com/spec-kit/dedup-service/internal/repository/memory"
)

func newTestSupervisor() (*Supervisor, *MemoryFlagStore, *memory.DeadLetterStore) {
	flags := NewMemoryFlagStore()
	deadLetters := memory.NewDeadLetterStore()
	supervisor := NewSupervisor(flags, deadLetters, observability.NewMetrics(), zap.NewNop())
	return supervisor, flags, deadLetters
}

func TestSupervisorPassesThrough(t *testing.T) {
	supervisor, _, deadLetters := newTestSupervisor()

	calls := 0
	wrapped := supervisor.Middleware()(func(ctx context.Context, job Job) error {
		calls++
		return nil
	})

	require.NoError(t, wrapped(context.Background(), Job{Type: "ticket.triage", Queue: DefaultQueue}))
	assert.Equal(t, 1, calls)

	records, err := deadLetters.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSupervisorPropagatesHandlerError(t *testing.T) {
	supervisor, _, deadLetters := newTestSupervisor()

	boom := errors.New("boom")
	wrapped := supervisor.Middleware()(func(ctx context.Context, job Job) error {
		return boom
	})

	err := wrapped(context.Background(), Job{Type: "ticket.triage", Queue: DefaultQueue})
	assert.ErrorIs(t, err, boom)

	// Mid-flight failures are the queue's to retry; capture happens on death.
	records, listErr := deadLetters.List(context.Background(), nil, 10, 0)
	require.NoError(t, listErr)
	assert.Empty(t, records)
}

func TestSupervisorForcedFailureIsSwallowedAndCaptured(t *testing.T) {
	supervisor, flags, deadLetters := newTestSupervisor()
	require.NoError(t, flags.Arm(context.Background(), "notification.dispatch", time.Minute))

	calls := 0
	wrapped := supervisor.Middleware()(func(ctx context.Context, job Job) error {
		calls++
		return nil
	})

	job := Job{Type: "notification.dispatch", Queue: DefaultQueue, Args: map[string]string{"notification_id": "n-1"}}
	require.NoError(t, wrapped(context.Background(), job))
	assert.Zero(t, calls, "handler must not run while the switch is armed")

	records, err := deadLetters.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "notification.dispatch", records[0].JobType)
	assert.Equal(t, "ForcedFailure", records[0].ErrorClass)
	assert.Equal(t, domain.DeadLetterStatusUnresolved, records[0].Status)
	assert.Equal(t, "n-1", records[0].Args["notification_id"])

	// The switch is one-shot: the next run executes normally.
	require.NoError(t, wrapped(context.Background(), job))
	assert.Equal(t, 1, calls)

	records, err = deadLetters.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSupervisorForcedFailureOnlyMatchingType(t *testing.T) {
	supervisor, flags, _ := newTestSupervisor()
	require.NoError(t, flags.Arm(context.Background(), "notification.dispatch", time.Minute))

	calls := 0
	wrapped := supervisor.Middleware()(func(ctx context.Context, job Job) error {
		calls++
		return nil
	})

	require.NoError(t, wrapped(context.Background(), Job{Type: "ticket.triage", Queue: DefaultQueue}))
	assert.Equal(t, 1, calls)

	armed, err := flags.Armed(context.Background(), "notification.dispatch")
	require.NoError(t, err)
	assert.True(t, armed, "switch for another type stays armed")
}

func TestSupervisorOnDeathCapturesErrorClass(t *testing.T) {
	supervisor, _, deadLetters := newTestSupervisor()

	job := Job{Type: "notification.redeliver", Queue: DefaultQueue, Args: map[string]string{"notification_id": "n-2"}}
	supervisor.OnDeath(context.Background(), job, context.DeadlineExceeded)

	records, err := deadLetters.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "notification.redeliver", records[0].JobType)
	assert.Equal(t, "context.deadlineExceededError", records[0].ErrorClass)
	assert.Equal(t, context.DeadlineExceeded.Error(), records[0].ErrorText)
	assert.Equal(t, domain.DeadLetterStatusUnresolved, records[0].Status)
}
