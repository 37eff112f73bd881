package dto

import (
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// InboundMessageRequest is the normalized payload posted by channel
// connectors. ExternalID is the connector's delivery id and drives the
// dedup gate; connectors that cannot supply one may omit it.
type InboundMessageRequest struct {
	Channel         domain.Channel `json:"channel"`
	ExternalID      string         `json:"external_id"`
	ReporterID      string         `json:"reporter_id"`
	ReporterAddress string         `json:"reporter_address"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
}

// IngestResponse reports the ticket an inbound message mapped to.
type IngestResponse struct {
	Ticket  TicketResponse `json:"ticket"`
	Created bool           `json:"created"`
}

// TicketResponse is the external ticket shape.
type TicketResponse struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	Channel     domain.Channel        `json:"channel"`
	ReporterID  string                `json:"reporter_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Summary     string                `json:"summary,omitempty"`
	Type        domain.TicketType     `json:"type"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	GroupID     *string               `json:"group_id"`
	Triaged     bool                  `json:"triaged"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	ResolvedAt  *time.Time            `json:"resolved_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		Channel:     ticket.Channel,
		ReporterID:  ticket.ReporterID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Summary:     ticket.Summary,
		Type:        ticket.Type,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		GroupID:     ticket.GroupID,
		Triaged:     ticket.HasEmbedding(),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ResolvedAt:  ticket.ResolvedAt,
	}
}
