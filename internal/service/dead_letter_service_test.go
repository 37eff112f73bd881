package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/repository/memory"
)

func newDeadLetterFixture() (*DeadLetterService, *memory.DeadLetterStore, *recordingQueue) {
	store := memory.NewDeadLetterStore()
	queue := &recordingQueue{}
	svc := NewDeadLetterService(DeadLetterDependencies{
		DeadLetterRepo: store,
		Queue:          queue,
		Logger:         zap.NewNop(),
	})
	return svc, store, queue
}

func seedDeadLetter(store *memory.DeadLetterStore) *domain.DeadLetterRecord {
	record := &domain.DeadLetterRecord{
		JobType:    jobs.TypeDispatchNotification,
		Args:       map[string]string{"notification_id": "n-1"},
		ErrorClass: "*errors.errorString",
		ErrorText:  "send failed",
		Queue:      jobs.DefaultQueue,
		Status:     domain.DeadLetterStatusUnresolved,
	}
	if err := store.Create(context.Background(), record); err != nil {
		panic(err)
	}
	return record
}

func TestDeadLetterRetryReenqueuesOriginalJob(t *testing.T) {
	svc, store, queue := newDeadLetterFixture()
	record := seedDeadLetter(store)

	retried, err := svc.Retry(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeadLetterStatusRetried, retried.Status)

	replayed := queue.jobsOfType(jobs.TypeDispatchNotification)
	require.Len(t, replayed, 1)
	assert.Equal(t, "n-1", replayed[0].Arg("notification_id"))
	assert.Equal(t, jobs.DefaultQueue, replayed[0].Queue)
}

func TestDeadLetterResolveMarksHandled(t *testing.T) {
	svc, store, queue := newDeadLetterFixture()
	record := seedDeadLetter(store)

	resolved, err := svc.Resolve(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeadLetterStatusResolved, resolved.Status)
	assert.Empty(t, queue.jobsOfType(jobs.TypeDispatchNotification))
}

func TestDeadLetterActionsAreOneShot(t *testing.T) {
	svc, store, _ := newDeadLetterFixture()
	record := seedDeadLetter(store)

	_, err := svc.Resolve(context.Background(), record.ID)
	require.NoError(t, err)

	// an operator acting on a stale list gets a conflict
	_, err = svc.Retry(context.Background(), record.ID)
	assert.Error(t, err)
	_, err = svc.Resolve(context.Background(), record.ID)
	assert.Error(t, err)
}

func TestDeadLetterListFiltersByStatus(t *testing.T) {
	svc, store, _ := newDeadLetterFixture()
	first := seedDeadLetter(store)
	seedDeadLetter(store)
	_, err := svc.Resolve(context.Background(), first.ID)
	require.NoError(t, err)

	unresolved := domain.DeadLetterStatusUnresolved
	records, err := svc.List(context.Background(), &unresolved, 10, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	all, err := svc.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
