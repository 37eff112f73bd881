package domain

import "time"

// GroupStatus enumerates lifecycle states for ticket groups.
type GroupStatus string

const (
	GroupStatusOpen     GroupStatus = "OPEN"
	GroupStatusResolved GroupStatus = "RESOLVED"
)

// TicketGroup is a mutable cluster of tickets believed to describe the same
// underlying issue. The group owns its member ids; PrimaryTicketID is a
// distinguished member used as the anchor for the group's single outbound
// notification. A group with fewer than two members is dissolved, never
// persisted in that state.
type TicketGroup struct {
	ID              string
	Name            string
	Status          GroupStatus
	PrimaryTicketID string
	MemberIDs       []string
	ResolvedChannel *Channel
	ResolutionNote  string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasMember reports whether the ticket id is currently a member.
func (g *TicketGroup) HasMember(ticketID string) bool {
	for _, id := range g.MemberIDs {
		if id == ticketID {
			return true
		}
	}
	return false
}

// MemberCount returns the current membership size.
func (g *TicketGroup) MemberCount() int {
	return len(g.MemberIDs)
}
