package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/jobs"
)

func (f *fixture) seedApprovals(base time.Time, spacing time.Duration, count int) {
	for i := 0; i < count; i++ {
		at := base.Add(time.Duration(i) * spacing)
		entry := &domain.ContentEntry{
			TicketID:   "ticket-x",
			Body:       "resolution text",
			Status:     domain.ContentEntryStatusApproved,
			ApprovedAt: &at,
		}
		if err := f.stores.content.Create(context.Background(), entry); err != nil {
			panic(err)
		}
	}
}

func TestShouldHoldAtThresholdDoesNotTrip(t *testing.T) {
	f := newFixture(nil)
	now := time.Now().UTC()
	f.surge.clock = func() time.Time { return now }

	// exactly five approvals inside the window is allowed
	f.seedApprovals(now.Add(-4*time.Minute), time.Minute/2, 5)

	hold, seen, err := f.surge.ShouldHold(context.Background())
	require.NoError(t, err)
	assert.False(t, hold)
	assert.Equal(t, 5, seen)
}

func TestShouldHoldTripsAboveThreshold(t *testing.T) {
	f := newFixture(nil)
	now := time.Now().UTC()
	f.surge.clock = func() time.Time { return now }

	// six approvals within five minutes
	f.seedApprovals(now.Add(-4*time.Minute), 30*time.Second, 6)

	hold, seen, err := f.surge.ShouldHold(context.Background())
	require.NoError(t, err)
	assert.True(t, hold)
	assert.Equal(t, 6, seen)
}

func TestShouldHoldIgnoresApprovalsSpreadBeyondWindow(t *testing.T) {
	f := newFixture(nil)
	now := time.Now().UTC()
	f.surge.clock = func() time.Time { return now }

	// six approvals, but the span from first to last exceeds the window
	f.seedApprovals(now.Add(-7*time.Minute), 72*time.Second, 6)

	hold, _, err := f.surge.ShouldHold(context.Background())
	require.NoError(t, err)
	assert.False(t, hold)
}

func TestShouldHoldDetectsBurstInsideLongerTail(t *testing.T) {
	f := newFixture(nil)
	now := time.Now().UTC()
	f.surge.clock = func() time.Time { return now }

	// a slow drip followed by a tight burst
	f.seedApprovals(now.Add(-9*time.Minute), 2*time.Minute, 2)
	f.seedApprovals(now.Add(-2*time.Minute), 10*time.Second, 6)

	hold, _, err := f.surge.ShouldHold(context.Background())
	require.NoError(t, err)
	assert.True(t, hold)
}

func seedHeldNotification(f *fixture) *domain.Notification {
	notification := &domain.Notification{
		TicketID:  "ticket-1",
		Channel:   domain.ChannelChat,
		Recipient: "room-1",
		Body:      "held body",
		Status:    domain.NotificationStatusBatchReview,
	}
	if err := f.stores.notifications.Create(context.Background(), notification); err != nil {
		panic(err)
	}
	return notification
}

func TestApproveHeldReleasesForDelivery(t *testing.T) {
	f := newFixture(nil)
	held := seedHeldNotification(f)

	approved, err := f.surge.ApproveHeld(context.Background(), held.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationStatusPending, approved.Status)

	dispatchJobs := f.queue.jobsOfType(jobs.TypeDispatchNotification)
	require.Len(t, dispatchJobs, 1)
	assert.Equal(t, held.ID, dispatchJobs[0].Arg("notification_id"))
}

func TestRejectHeldDiscardsPermanently(t *testing.T) {
	f := newFixture(nil)
	held := seedHeldNotification(f)

	rejected, err := f.surge.RejectHeld(context.Background(), held.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationStatusFailed, rejected.Status)
	assert.Equal(t, domain.BatchRejectedError, rejected.LastError)
	assert.Nil(t, rejected.NextAttemptAt)

	// rejected rows never come back through the sweep
	due, err := f.stores.notifications.ListDue(context.Background(), time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Empty(t, f.queue.jobsOfType(jobs.TypeDispatchNotification))
}

func TestBatchReviewActionsConflictOnNonHeldNotification(t *testing.T) {
	f := newFixture(nil)
	notification := &domain.Notification{
		TicketID:  "ticket-2",
		Channel:   domain.ChannelChat,
		Recipient: "room-2",
		Status:    domain.NotificationStatusSent,
	}
	require.NoError(t, f.stores.notifications.Create(context.Background(), notification))

	_, err := f.surge.ApproveHeld(context.Background(), notification.ID)
	assert.Error(t, err)
	_, err = f.surge.RejectHeld(context.Background(), notification.ID)
	assert.Error(t, err)
}

func TestApproveAllHeldReleasesEverything(t *testing.T) {
	f := newFixture(nil)
	first := seedHeldNotification(f)
	second := seedHeldNotification(f)

	released, err := f.surge.ApproveAllHeld(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	for _, id := range []string{first.ID, second.ID} {
		got, getErr := f.stores.notifications.GetByID(context.Background(), id)
		require.NoError(t, getErr)
		assert.Equal(t, domain.NotificationStatusPending, got.Status)
	}
	assert.Len(t, f.queue.jobsOfType(jobs.TypeDispatchNotification), 2)

	held, err := f.surge.ListHeld(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRejectAllHeldDiscardsEverything(t *testing.T) {
	f := newFixture(nil)
	seedHeldNotification(f)
	seedHeldNotification(f)

	rejected, err := f.surge.RejectAllHeld(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rejected)
	assert.Empty(t, f.queue.jobsOfType(jobs.TypeDispatchNotification))

	held, err := f.surge.ListHeld(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, held)
}
