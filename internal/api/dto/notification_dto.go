package dto

import (
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// NotificationResponse is the external notification shape.
type NotificationResponse struct {
	ID             string                    `json:"id"`
	TicketID       string                    `json:"ticket_id"`
	ContentEntryID *string                   `json:"content_entry_id"`
	Channel        domain.Channel            `json:"channel"`
	Recipient      string                    `json:"recipient"`
	Body           string                    `json:"body"`
	Status         domain.NotificationStatus `json:"status"`
	RetryCount     int                       `json:"retry_count"`
	LastError      string                    `json:"last_error,omitempty"`
	NextAttemptAt  *time.Time                `json:"next_attempt_at"`
	DeliveredAt    *time.Time                `json:"delivered_at"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// NewNotificationResponse maps a domain notification.
func NewNotificationResponse(notification *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             notification.ID,
		TicketID:       notification.TicketID,
		ContentEntryID: notification.ContentEntryID,
		Channel:        notification.Channel,
		Recipient:      notification.Recipient,
		Body:           notification.Body,
		Status:         notification.Status,
		RetryCount:     notification.RetryCount,
		LastError:      notification.LastError,
		NextAttemptAt:  notification.NextAttemptAt,
		DeliveredAt:    notification.DeliveredAt,
		CreatedAt:      notification.CreatedAt,
	}
}

// ContentEntryResponse is the external content-entry shape.
type ContentEntryResponse struct {
	ID         string                    `json:"id"`
	TicketID   string                    `json:"ticket_id"`
	Body       string                    `json:"body"`
	Status     domain.ContentEntryStatus `json:"status"`
	ApprovedAt *time.Time                `json:"approved_at"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// NewContentEntryResponse maps a domain content entry.
func NewContentEntryResponse(entry *domain.ContentEntry) ContentEntryResponse {
	return ContentEntryResponse{
		ID:         entry.ID,
		TicketID:   entry.TicketID,
		Body:       entry.Body,
		Status:     entry.Status,
		ApprovedAt: entry.ApprovedAt,
		CreatedAt:  entry.CreatedAt,
	}
}

// CreateContentEntryRequest payload.
type CreateContentEntryRequest struct {
	Body string `json:"body"`
}

// ApproveContentResponse reports the approval outcome.
type ApproveContentResponse struct {
	Entry        ContentEntryResponse `json:"entry"`
	Notification NotificationResponse `json:"notification"`
}
