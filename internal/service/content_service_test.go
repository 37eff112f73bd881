package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/jobs"
)

func TestCreateDraftValidates(t *testing.T) {
	f := newFixture(nil)
	ticket := f.seedTicket("has draft", &domain.Ticket{})

	_, err := f.content.CreateDraft(context.Background(), ticket.ID, "   ")
	assert.Error(t, err)

	_, err = f.content.CreateDraft(context.Background(), "missing-ticket", "body")
	assert.Error(t, err)

	entry, err := f.content.CreateDraft(context.Background(), ticket.ID, "we fixed it")
	require.NoError(t, err)
	assert.Equal(t, domain.ContentEntryStatusDraft, entry.Status)
	assert.Nil(t, entry.ApprovedAt)
}

func TestApproveDispatchesToReporter(t *testing.T) {
	f := newFixture(nil)
	ticket := f.seedTicket("approve me", &domain.Ticket{ReporterID: "alice", Channel: domain.ChannelThreads})
	f.seedIdentity("alice", domain.ChannelThreads, "thread-9")
	entry, err := f.content.CreateDraft(context.Background(), ticket.ID, "we fixed it")
	require.NoError(t, err)

	approved, notification, err := f.content.Approve(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentEntryStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	assert.Equal(t, "thread-9", notification.Recipient)
	assert.Equal(t, domain.ChannelThreads, notification.Channel)
	require.NotNil(t, notification.ContentEntryID)
	assert.Equal(t, entry.ID, *notification.ContentEntryID)

	assert.Len(t, f.queue.jobsOfType(jobs.TypeDispatchNotification), 1)
}

func TestApproveRollsBackWhenReporterUnreachable(t *testing.T) {
	f := newFixture(nil)
	ticket := f.seedTicket("unreachable", &domain.Ticket{ReporterID: "ghost"})
	entry, err := f.content.CreateDraft(context.Background(), ticket.ID, "we fixed it")
	require.NoError(t, err)

	_, _, err = f.content.Approve(context.Background(), entry.ID)
	require.Error(t, err)

	after, err := f.stores.content.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentEntryStatusDraft, after.Status)
	assert.Nil(t, after.ApprovedAt)
}

func TestApproveRejectOnlyDrafts(t *testing.T) {
	f := newFixture(nil)
	ticket := f.seedTicket("review states", &domain.Ticket{ReporterID: "alice"})
	f.seedIdentity("alice", domain.ChannelChat, "room")
	entry, err := f.content.CreateDraft(context.Background(), ticket.ID, "text")
	require.NoError(t, err)

	_, _, err = f.content.Approve(context.Background(), entry.ID)
	require.NoError(t, err)

	_, _, err = f.content.Approve(context.Background(), entry.ID)
	assert.Error(t, err)
	_, err = f.content.Reject(context.Background(), entry.ID)
	assert.Error(t, err)
}

func TestRejectDiscardsDraft(t *testing.T) {
	f := newFixture(nil)
	ticket := f.seedTicket("rejected", &domain.Ticket{})
	entry, err := f.content.CreateDraft(context.Background(), ticket.ID, "not good enough")
	require.NoError(t, err)

	rejected, err := f.content.Reject(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentEntryStatusRejected, rejected.Status)
	assert.Empty(t, f.queue.jobsOfType(jobs.TypeDispatchNotification))
}
