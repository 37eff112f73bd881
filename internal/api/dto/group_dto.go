package dto

import (
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// CreateGroupRequest payload.
type CreateGroupRequest struct {
	Name            string   `json:"name"`
	TicketIDs       []string `json:"ticket_ids"`
	PrimaryTicketID string   `json:"primary_ticket_id"`
}

// AddGroupTicketsRequest payload.
type AddGroupTicketsRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

// ResolveGroupRequest payload. Content overrides the default body built
// from the members' approved entries.
type ResolveGroupRequest struct {
	Channel domain.Channel `json:"channel"`
	Note    string         `json:"note"`
	Content string         `json:"content"`
}

// GroupResponse is the external group shape.
type GroupResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Status          domain.GroupStatus `json:"status"`
	PrimaryTicketID string             `json:"primary_ticket_id"`
	MemberIDs       []string           `json:"member_ids"`
	ResolvedChannel *domain.Channel    `json:"resolved_channel"`
	ResolutionNote  string             `json:"resolution_note,omitempty"`
	ResolvedAt      *time.Time         `json:"resolved_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewGroupResponse maps a domain group.
func NewGroupResponse(group *domain.TicketGroup) GroupResponse {
	return GroupResponse{
		ID:              group.ID,
		Name:            group.Name,
		Status:          group.Status,
		PrimaryTicketID: group.PrimaryTicketID,
		MemberIDs:       group.MemberIDs,
		ResolvedChannel: group.ResolvedChannel,
		ResolutionNote:  group.ResolutionNote,
		ResolvedAt:      group.ResolvedAt,
		CreatedAt:       group.CreatedAt,
		UpdatedAt:       group.UpdatedAt,
	}
}

// ResolveGroupResponse reports the resolution outcome.
type ResolveGroupResponse struct {
	Group        GroupResponse         `json:"group"`
	Notification *NotificationResponse `json:"notification"`
}
