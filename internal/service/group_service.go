package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/events"
	"github.com/spec-kit/dedup-service/internal/repository"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// AutoGroupPrefix marks group names derived by the clusterer rather than
// chosen by an operator.
const AutoGroupPrefix = "[auto] "

// GroupService owns ticket-group mutation. Mutations are serialized per
// group id so concurrent clustering runs cannot break the two-member
// minimum invariant.
type GroupService struct {
	groups     repository.GroupRepository
	tickets    repository.TicketRepository
	content    repository.ContentEntryRepository
	identities repository.IdentityRepository
	dispatch   *DispatchService
	dispatcher events.Dispatcher
	logger     *zap.Logger

	createMu sync.Mutex
	locksMu  sync.Mutex
	locks    map[string]*sync.Mutex
}

// GroupDependencies bundles collaborators for the group service.
type GroupDependencies struct {
	GroupRepo    repository.GroupRepository
	TicketRepo   repository.TicketRepository
	ContentRepo  repository.ContentEntryRepository
	IdentityRepo repository.IdentityRepository
	Dispatch     *DispatchService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewGroupService constructs the service.
func NewGroupService(deps GroupDependencies) *GroupService {
	return &GroupService{
		groups:     deps.GroupRepo,
		tickets:    deps.TicketRepo,
		content:    deps.ContentRepo,
		identities: deps.IdentityRepo,
		dispatch:   deps.Dispatch,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *GroupService) lockGroup(id string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.locksMu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Create builds a group from at least two ungrouped tickets. The primary
// must be among the members. Tickets already in a group are never silently
// reparented.
func (s *GroupService) Create(ctx context.Context, name string, ticketIDs []string, primaryID string) (*domain.TicketGroup, error) {
	if len(ticketIDs) < 2 {
		return nil, apperrors.NewValidationError("group requires at least two tickets", nil)
	}
	if !containsID(ticketIDs, primaryID) {
		return nil, apperrors.NewValidationError("primary ticket must be a member", map[string]any{"primary_id": primaryID})
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	members := make([]*domain.Ticket, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		ticket, err := s.tickets.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ticket.GroupID != nil {
			return nil, apperrors.NewConflict("ticket already belongs to a group",
				map[string]any{"ticket_id": id, "group_id": *ticket.GroupID})
		}
		members = append(members, ticket)
	}

	group := &domain.TicketGroup{
		Name:            strings.TrimSpace(name),
		Status:          domain.GroupStatusOpen,
		PrimaryTicketID: primaryID,
		MemberIDs:       append([]string{}, ticketIDs...),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	for _, ticket := range members {
		groupID := group.ID
		ticket.GroupID = &groupID
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketGrouped,
			TicketID: ticket.ID,
			GroupID:  group.ID,
			Payload: events.TicketGroupedPayload{
				GroupName: group.Name,
				Members:   len(group.MemberIDs),
			},
		})
	}

	s.logger.Info("group created",
		zap.String("group_id", group.ID),
		zap.String("name", group.Name),
		zap.Int("members", len(group.MemberIDs)))
	return group, nil
}

// Add extends a group with additional tickets. Already-grouped tickets are
// rejected; events are emitted for newly added members only.
func (s *GroupService) Add(ctx context.Context, groupID string, ticketIDs []string) (*domain.TicketGroup, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.getOpenGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	for _, id := range ticketIDs {
		if group.HasMember(id) {
			continue
		}
		ticket, err := s.tickets.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ticket.GroupID != nil {
			return nil, apperrors.NewConflict("ticket already belongs to a group",
				map[string]any{"ticket_id": id, "group_id": *ticket.GroupID})
		}

		gid := group.ID
		ticket.GroupID = &gid
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		group.MemberIDs = append(group.MemberIDs, id)
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketGrouped,
			TicketID: id,
			GroupID:  group.ID,
			Payload: events.TicketGroupedPayload{
				GroupName: group.Name,
				Members:   len(group.MemberIDs),
			},
		})
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Remove detaches a ticket from its group. A group left with fewer than
// two members is dissolved rather than kept in an invalid state. If the
// removed ticket was primary and the group survives, the first remaining
// member becomes primary.
func (s *GroupService) Remove(ctx context.Context, groupID, ticketID string) error {
	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.getOpenGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(ticketID) {
		return apperrors.NewNotFound("group member", map[string]any{"ticket_id": ticketID})
	}

	if err := s.detach(ctx, ticketID, "removed from group"); err != nil {
		return err
	}
	group.MemberIDs = removeID(group.MemberIDs, ticketID)

	if group.MemberCount() < 2 {
		for _, id := range group.MemberIDs {
			if err := s.detach(ctx, id, "group dissolved"); err != nil {
				return err
			}
		}
		if err := s.groups.Delete(ctx, group.ID); err != nil {
			return err
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventGroupDissolved,
			GroupID: group.ID,
		})
		s.logger.Info("group dissolved", zap.String("group_id", group.ID))
		return nil
	}

	if group.PrimaryTicketID == ticketID {
		group.PrimaryTicketID = group.MemberIDs[0]
	}
	return s.groups.Update(ctx, group)
}

// Resolve transitions every member to resolved and produces exactly one
// outbound notification, attached to the primary ticket. When the primary
// reporter has no identity on the chosen channel the group still resolves
// and no notification is created.
func (s *GroupService) Resolve(ctx context.Context, groupID string, ch domain.Channel, note, content string) (*domain.TicketGroup, *domain.Notification, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("group", map[string]any{"group_id": groupID})
		}
		return nil, nil, err
	}
	if group.Status == domain.GroupStatusResolved {
		return nil, nil, apperrors.NewConflict("group already resolved", map[string]any{"group_id": groupID})
	}
	if !domain.KnownChannel(ch) {
		return nil, nil, apperrors.NewValidationError("unknown channel", map[string]any{"channel": ch})
	}

	now := time.Now().UTC()
	body := strings.TrimSpace(content)
	var bodyParts []string

	for _, memberID := range group.MemberIDs {
		ticket, err := s.tickets.GetByID(ctx, memberID)
		if err != nil {
			return nil, nil, err
		}
		if ticket.Status != domain.TicketStatusResolved {
			ticket.Status = domain.TicketStatusResolved
			resolvedAt := now
			ticket.ResolvedAt = &resolvedAt
			if err := s.tickets.Update(ctx, ticket); err != nil {
				return nil, nil, err
			}
		}
		if body == "" {
			entries, err := s.content.ListApprovedByTicket(ctx, memberID)
			if err != nil {
				return nil, nil, err
			}
			for _, entry := range entries {
				bodyParts = append(bodyParts, entry.Body)
			}
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventGroupResolved,
			TicketID: memberID,
			GroupID:  group.ID,
			Payload: events.GroupResolvedPayload{
				Channel: ch,
				Members: group.MemberCount(),
				Note:    note,
			},
		})
	}
	if body == "" {
		body = strings.Join(bodyParts, "\n\n")
	}

	group.Status = domain.GroupStatusResolved
	group.ResolvedChannel = &ch
	group.ResolutionNote = note
	resolvedAt := now
	group.ResolvedAt = &resolvedAt
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, nil, err
	}

	primary, err := s.tickets.GetByID(ctx, group.PrimaryTicketID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.identities.GetByReporterAndChannel(ctx, primary.ReporterID, ch); err != nil {
		// resolution is not gated on having a deliverable identity
		s.logger.Warn("no deliverable identity for primary, skipping notification",
			zap.String("group_id", group.ID),
			zap.String("reporter_id", primary.ReporterID),
			zap.String("channel", string(ch)))
		return group, nil, nil
	}

	notification, err := s.dispatch.DispatchResolution(ctx, primary, ch, body, nil)
	if err != nil {
		return nil, nil, err
	}
	return group, notification, nil
}

// Get returns a group by id.
func (s *GroupService) Get(ctx context.Context, groupID string) (*domain.TicketGroup, error) {
	return s.getAny(ctx, groupID)
}

// Members returns the tickets currently in a group.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]domain.Ticket, error) {
	if _, err := s.getAny(ctx, groupID); err != nil {
		return nil, err
	}
	return s.tickets.ListByGroup(ctx, groupID)
}

// List returns groups ordered by recency.
func (s *GroupService) List(ctx context.Context, limit, offset int) ([]domain.TicketGroup, error) {
	return s.groups.List(ctx, limit, offset)
}

func (s *GroupService) getOpenGroup(ctx context.Context, groupID string) (*domain.TicketGroup, error) {
	group, err := s.getAny(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status == domain.GroupStatusResolved {
		return nil, apperrors.NewConflict("group already resolved", map[string]any{"group_id": groupID})
	}
	return group, nil
}

func (s *GroupService) getAny(ctx context.Context, groupID string) (*domain.TicketGroup, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// stale references surface as not-found, never as a mutation
			return nil, apperrors.NewNotFound("group", map[string]any{"group_id": groupID})
		}
		return nil, err
	}
	return group, nil
}

func (s *GroupService) detach(ctx context.Context, ticketID, reason string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	ticket.GroupID = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketUngrouped,
		TicketID: ticketID,
		Payload:  events.TicketUngroupedPayload{Reason: reason},
	})
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
