package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/events"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/repository"
	"github.com/spec-kit/dedup-service/internal/triage"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// TicketDraft is a normalized inbound message, produced by the upstream
// channel normalizer.
type TicketDraft struct {
	Channel         domain.Channel
	ExternalID      string
	ReporterID      string
	ReporterAddress string
	Title           string
	Description     string
}

// IngestService owns idempotent ticket ingestion and triage application.
type IngestService struct {
	tickets    repository.TicketRepository
	identities repository.IdentityRepository
	provider   triage.Provider
	queue      jobs.Queue
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	TicketRepo   repository.TicketRepository
	IdentityRepo repository.IdentityRepository
	Provider     triage.Provider
	Queue        jobs.Queue
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	return &IngestService{
		tickets:    deps.TicketRepo,
		identities: deps.IdentityRepo,
		provider:   deps.Provider,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Ingest creates a ticket for an inbound message, or returns the existing
// one when the (channel, external id) pair has been seen before. The bool
// result reports whether a new ticket was created.
func (s *IngestService) Ingest(ctx context.Context, draft TicketDraft) (*domain.Ticket, bool, error) {
	if !domain.KnownChannel(draft.Channel) {
		return nil, false, apperrors.NewValidationError("unknown channel", map[string]any{"channel": draft.Channel})
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, false, apperrors.NewValidationError("title required", nil)
	}
	if draft.ReporterID == "" {
		return nil, false, apperrors.NewValidationError("reporter required", nil)
	}

	if draft.ExternalID == "" {
		// Webhook senders occasionally omit ids; ingestion proceeds without
		// dedup protection for this message.
		s.logger.Warn("no external id on inbound message, dedup gate skipped",
			zap.String("channel", string(draft.Channel)))
	} else {
		existing, err := s.tickets.GetByChannelExternalID(ctx, draft.Channel, draft.ExternalID)
		switch {
		case err == nil:
			s.logger.Info("duplicate delivery, returning existing ticket",
				zap.String("ticket_id", existing.ID),
				zap.String("channel", string(draft.Channel)),
				zap.String("external_id", draft.ExternalID))
			return existing, false, nil
		case !errors.Is(err, pgx.ErrNoRows):
			// the sender redelivers; failing here is safer than minting a
			// duplicate with the gate blind
			return nil, false, err
		}
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		Channel:     draft.Channel,
		ExternalID:  draft.ExternalID,
		ReporterID:  draft.ReporterID,
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Type:        domain.TicketTypeOther,
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, false, err
	}

	if draft.ReporterAddress != "" {
		identity := &domain.ChannelIdentity{
			ReporterID: draft.ReporterID,
			Channel:    draft.Channel,
			Address:    draft.ReporterAddress,
		}
		if err := s.identities.Upsert(ctx, identity); err != nil {
			s.logger.Warn("failed to record reporter identity",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Channel:    ticket.Channel,
			ExternalID: ticket.ExternalID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Type: jobs.TypeTriageTicket,
		Args: map[string]string{"ticket_id": ticket.ID},
	}); err != nil {
		s.logger.Error("failed to enqueue triage", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	return ticket, true, nil
}

// Triage applies the provider's classification and embedding to a ticket
// and hands it to the clusterer. Rate-limit errors bubble up so the worker
// can reschedule instead of blocking.
func (s *IngestService) Triage(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.HasEmbedding() {
		// already triaged; re-delivered job
		return nil
	}

	classification, err := s.provider.Classify(ctx, ticket.Title, ticket.Description)
	if err != nil {
		return err
	}
	embedding, err := s.provider.Embed(ctx, ticket.Title+"\n"+ticket.Description)
	if err != nil {
		return err
	}

	ticket.Type = classification.Type
	ticket.Priority = classification.Priority
	ticket.Summary = classification.Summary
	ticket.Embedding = embedding
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketTriaged,
		TicketID: ticket.ID,
		Payload: events.TicketTriagedPayload{
			Type:      ticket.Type,
			Priority:  ticket.Priority,
			Summary:   ticket.Summary,
			Dimension: len(ticket.Embedding),
		},
	})

	return s.queue.Enqueue(ctx, jobs.Job{
		Type: jobs.TypeClusterTicket,
		Args: map[string]string{"ticket_id": ticket.ID},
	})
}

// GetTicket returns a ticket by id.
func (s *IngestService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
