package domain

import "time"

// NotificationStatus enumerates delivery states.
type NotificationStatus string

const (
	NotificationStatusPending     NotificationStatus = "PENDING"
	NotificationStatusSent        NotificationStatus = "SENT"
	NotificationStatusFailed      NotificationStatus = "FAILED"
	NotificationStatusBatchReview NotificationStatus = "PENDING_BATCH_REVIEW"
)

// BatchRejectedError is the sentinel recorded on notifications an operator
// rejects during batch review. Rejected notifications are never retried.
const BatchRejectedError = "rejected by operator during batch review"

// Notification is one outbound resolution notice. Rows are an audit trail:
// they are mutated by delivery attempts but never deleted.
type Notification struct {
	ID             string
	TicketID       string
	ContentEntryID *string
	Channel        Channel
	Recipient      string
	Body           string
	Status         NotificationStatus
	RetryCount     int
	LastError      string
	NextAttemptAt  *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ContentEntryStatus enumerates review states for resolution text.
type ContentEntryStatus string

const (
	ContentEntryStatusDraft    ContentEntryStatus = "DRAFT"
	ContentEntryStatusApproved ContentEntryStatus = "APPROVED"
	ContentEntryStatusRejected ContentEntryStatus = "REJECTED"
)

// ContentEntry is a piece of user-facing resolution text tied to a ticket.
// Only approved entries are eligible for dispatch.
type ContentEntry struct {
	ID         string
	TicketID   string
	Body       string
	Status     ContentEntryStatus
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
