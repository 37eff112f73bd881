package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority is ordinal urgency; lower means more urgent.
type TicketPriority int

const (
	TicketPriorityUrgent TicketPriority = 0
	TicketPriorityHigh   TicketPriority = 1
	TicketPriorityMedium TicketPriority = 2
	TicketPriorityLow    TicketPriority = 3
)

// TicketType enumerates triage classifications.
type TicketType string

const (
	TicketTypeBug      TicketType = "BUG"
	TicketTypeQuestion TicketType = "QUESTION"
	TicketTypeRequest  TicketType = "REQUEST"
	TicketTypeOther    TicketType = "OTHER"
)

// Ticket is the aggregate for a single reported issue from one channel.
// GroupID is nil until clustering places the ticket in a group; a ticket
// belongs to at most one group. Embedding is nil until triage completes
// and is expected to be L2-normalized by the provider.
type Ticket struct {
	ID          string
	ExternalKey string
	Channel     Channel
	ExternalID  string
	ReporterID  string
	Title       string
	Description string
	Summary     string
	Type        TicketType
	Status      TicketStatus
	Priority    TicketPriority
	Embedding   []float32
	GroupID     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

// HasEmbedding reports whether triage has produced a vector for the ticket.
func (t *Ticket) HasEmbedding() bool {
	return len(t.Embedding) > 0
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed, TicketStatusOpen},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusOpen},
	TicketStatusClosed:     {TicketStatusOpen},
}

// IsValidTransition reports whether a status change is allowed.
func IsValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
