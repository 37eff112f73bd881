package events

import (
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketTriaged      EventType = "ticket_triaged"
	EventTicketGrouped      EventType = "ticket_grouped"
	EventTicketUngrouped    EventType = "ticket_ungrouped"
	EventGroupDissolved     EventType = "group_dissolved"
	EventGroupResolved      EventType = "group_resolved"
	EventNotificationSent   EventType = "notification_sent"
	EventNotificationFailed EventType = "notification_failed"
	EventNotificationHeld   EventType = "notification_held"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	GroupID   string      `json:"group_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Channel    domain.Channel        `json:"channel"`
	ExternalID string                `json:"external_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
}

// TicketTriagedPayload payload.
type TicketTriagedPayload struct {
	Type      domain.TicketType     `json:"type"`
	Priority  domain.TicketPriority `json:"priority"`
	Summary   string                `json:"summary"`
	Dimension int                   `json:"dimension"`
}

// TicketGroupedPayload payload.
type TicketGroupedPayload struct {
	GroupName string `json:"group_name"`
	Members   int    `json:"members"`
}

// TicketUngroupedPayload payload.
type TicketUngroupedPayload struct {
	Reason string `json:"reason"`
}

// GroupResolvedPayload payload.
type GroupResolvedPayload struct {
	Channel domain.Channel `json:"channel"`
	Members int            `json:"members"`
	Note    string         `json:"note,omitempty"`
}

// NotificationSentPayload payload.
type NotificationSentPayload struct {
	NotificationID string         `json:"notification_id"`
	Channel        domain.Channel `json:"channel"`
	Recipient      string         `json:"recipient"`
}

// NotificationFailedPayload payload.
type NotificationFailedPayload struct {
	NotificationID string         `json:"notification_id"`
	Channel        domain.Channel `json:"channel"`
	RetryCount     int            `json:"retry_count"`
	Error          string         `json:"error"`
}

// NotificationHeldPayload payload.
type NotificationHeldPayload struct {
	NotificationID string `json:"notification_id"`
	ApprovalsSeen  int    `json:"approvals_seen"`
}
