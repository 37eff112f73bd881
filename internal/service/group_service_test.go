package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dedup-service/internal/domain"
)

func TestGroupCreateRequiresTwoMembers(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("only one", &domain.Ticket{})

	_, err := f.groups.Create(context.Background(), "too small", []string{a.ID}, a.ID)
	assert.Error(t, err)
}

func TestGroupCreateRejectsForeignPrimary(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{})
	b := f.seedTicket("two", &domain.Ticket{})
	c := f.seedTicket("outsider", &domain.Ticket{})

	_, err := f.groups.Create(context.Background(), "bad primary", []string{a.ID, b.ID}, c.ID)
	assert.Error(t, err)
}

func TestGroupCreateRejectsAlreadyGroupedTicket(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{})
	b := f.seedTicket("two", &domain.Ticket{})
	c := f.seedTicket("three", &domain.Ticket{})
	_, err := f.groups.Create(context.Background(), "first", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)

	_, err = f.groups.Create(context.Background(), "second", []string{b.ID, c.ID}, b.ID)
	assert.Error(t, err)
}

func TestGroupRemoveDissolvesBelowTwoMembers(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{})
	b := f.seedTicket("two", &domain.Ticket{})
	group, err := f.groups.Create(context.Background(), "pair", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.groups.Remove(context.Background(), group.ID, b.ID))

	_, err = f.stores.groups.GetByID(context.Background(), group.ID)
	assert.Error(t, err)
	for _, id := range []string{a.ID, b.ID} {
		ticket, err := f.stores.tickets.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, ticket.GroupID)
	}
}

func TestGroupRemovePrimaryReassignsPrimary(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{})
	b := f.seedTicket("two", &domain.Ticket{})
	c := f.seedTicket("three", &domain.Ticket{})
	group, err := f.groups.Create(context.Background(), "trio", []string{a.ID, b.ID, c.ID}, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.groups.Remove(context.Background(), group.ID, a.ID))

	after, err := f.stores.groups.GetByID(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Len(t, after.MemberIDs, 2)
	assert.Equal(t, b.ID, after.PrimaryTicketID)
	assert.False(t, after.HasMember(a.ID))
}

func TestGroupResolveMarksMembersAndNotifiesPrimaryOnce(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{ReporterID: "alice"})
	b := f.seedTicket("two", &domain.Ticket{ReporterID: "bob"})
	f.seedIdentity("alice", domain.ChannelChat, "alice-room")
	group, err := f.groups.Create(context.Background(), "pair", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)

	resolved, notification, err := f.groups.Resolve(context.Background(), group.ID, domain.ChannelChat, "fixed upstream", "all set now")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedChannel)
	assert.Equal(t, domain.ChannelChat, *resolved.ResolvedChannel)

	require.NotNil(t, notification)
	assert.Equal(t, a.ID, notification.TicketID)
	assert.Equal(t, "alice-room", notification.Recipient)
	assert.Equal(t, "all set now", notification.Body)

	for _, id := range []string{a.ID, b.ID} {
		ticket, err := f.stores.tickets.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
		assert.NotNil(t, ticket.ResolvedAt)
	}

	// exactly one outbound notification for the whole group
	pending, err := f.stores.notifications.ListByStatus(context.Background(), domain.NotificationStatusPending, 10, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestGroupResolveWithoutIdentitySkipsNotification(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{ReporterID: "ghost"})
	b := f.seedTicket("two", &domain.Ticket{ReporterID: "bob"})
	group, err := f.groups.Create(context.Background(), "pair", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)

	resolved, notification, err := f.groups.Resolve(context.Background(), group.ID, domain.ChannelChat, "", "done")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusResolved, resolved.Status)
	assert.Nil(t, notification)
}

func TestGroupResolveTwiceConflicts(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{})
	b := f.seedTicket("two", &domain.Ticket{})
	group, err := f.groups.Create(context.Background(), "pair", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)

	_, _, err = f.groups.Resolve(context.Background(), group.ID, domain.ChannelChat, "", "done")
	require.NoError(t, err)

	_, _, err = f.groups.Resolve(context.Background(), group.ID, domain.ChannelChat, "", "again")
	assert.Error(t, err)
}

func TestGroupResolveBuildsBodyFromApprovedEntries(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{ReporterID: "alice"})
	b := f.seedTicket("two", &domain.Ticket{ReporterID: "bob"})
	f.seedIdentity("alice", domain.ChannelChat, "alice-room")
	group, err := f.groups.Create(context.Background(), "pair", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)

	approvedAt := time.Now().Add(-time.Hour).UTC()
	entry := &domain.ContentEntry{TicketID: a.ID, Body: "root cause was a bad deploy", Status: domain.ContentEntryStatusApproved, ApprovedAt: &approvedAt}
	require.NoError(t, f.stores.content.Create(context.Background(), entry))

	_, notification, err := f.groups.Resolve(context.Background(), group.ID, domain.ChannelChat, "", "")
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Contains(t, notification.Body, "root cause was a bad deploy")
}

func TestGroupAddRejectsGroupedTicket(t *testing.T) {
	f := newFixture(nil)
	a := f.seedTicket("one", &domain.Ticket{})
	b := f.seedTicket("two", &domain.Ticket{})
	c := f.seedTicket("three", &domain.Ticket{})
	d := f.seedTicket("four", &domain.Ticket{})
	first, err := f.groups.Create(context.Background(), "first", []string{a.ID, b.ID}, a.ID)
	require.NoError(t, err)
	second, err := f.groups.Create(context.Background(), "second", []string{c.ID, d.ID}, c.ID)
	require.NoError(t, err)

	_, err = f.groups.Add(context.Background(), first.ID, []string{c.ID})
	assert.Error(t, err)

	after, err := f.stores.groups.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.True(t, after.HasMember(c.ID))
}
