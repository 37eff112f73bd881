package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/repository"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// ContentService manages resolution text through its review lifecycle.
// Approval is the trigger for outbound delivery.
type ContentService struct {
	content  repository.ContentEntryRepository
	tickets  repository.TicketRepository
	dispatch *DispatchService
	logger   *zap.Logger
	clock    func() time.Time
}

// ContentDependencies bundles collaborators for the content service.
type ContentDependencies struct {
	ContentRepo repository.ContentEntryRepository
	TicketRepo  repository.TicketRepository
	Dispatch    *DispatchService
	Logger      *zap.Logger
}

// NewContentService constructs the service.
func NewContentService(deps ContentDependencies) *ContentService {
	return &ContentService{
		content:  deps.ContentRepo,
		tickets:  deps.TicketRepo,
		dispatch: deps.Dispatch,
		logger:   deps.Logger,
		clock:    time.Now,
	}
}

// CreateDraft records new resolution text for a ticket.
func (s *ContentService) CreateDraft(ctx context.Context, ticketID, body string) (*domain.ContentEntry, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}

	entry := &domain.ContentEntry{
		TicketID: ticketID,
		Body:     strings.TrimSpace(body),
		Status:   domain.ContentEntryStatusDraft,
	}
	if err := s.content.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Approve moves a draft to approved and dispatches it to the reporter.
// When the reporter has no deliverable identity the approval is rolled
// back so the entry can be re-approved once an identity exists.
func (s *ContentService) Approve(ctx context.Context, entryID string) (*domain.ContentEntry, *domain.Notification, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if entry.Status != domain.ContentEntryStatusDraft {
		return nil, nil, apperrors.NewConflict("only draft entries can be approved",
			map[string]any{"entry_id": entryID, "status": entry.Status})
	}

	now := s.clock().UTC()
	entry.Status = domain.ContentEntryStatusApproved
	entry.ApprovedAt = &now
	if err := s.content.Update(ctx, entry); err != nil {
		return nil, nil, err
	}

	notification, err := s.dispatch.DispatchEntry(ctx, entry)
	if err != nil {
		entry.Status = domain.ContentEntryStatusDraft
		entry.ApprovedAt = nil
		if revertErr := s.content.Update(ctx, entry); revertErr != nil {
			s.logger.Error("failed to revert approval after dispatch error",
				zap.String("entry_id", entry.ID), zap.Error(revertErr))
		}
		return nil, nil, err
	}

	s.logger.Info("content entry approved",
		zap.String("entry_id", entry.ID),
		zap.String("ticket_id", entry.TicketID),
		zap.String("notification_id", notification.ID))
	return entry, notification, nil
}

// Reject discards a draft.
func (s *ContentService) Reject(ctx context.Context, entryID string) (*domain.ContentEntry, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.ContentEntryStatusDraft {
		return nil, apperrors.NewConflict("only draft entries can be rejected",
			map[string]any{"entry_id": entryID, "status": entry.Status})
	}

	entry.Status = domain.ContentEntryStatusRejected
	if err := s.content.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns an entry by id.
func (s *ContentService) Get(ctx context.Context, entryID string) (*domain.ContentEntry, error) {
	return s.getEntry(ctx, entryID)
}

func (s *ContentService) getEntry(ctx context.Context, entryID string) (*domain.ContentEntry, error) {
	entry, err := s.content.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("content entry", map[string]any{"entry_id": entryID})
		}
		return nil, err
	}
	return entry, nil
}
