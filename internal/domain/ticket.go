package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ParsePriority normalizes raw input. Empty input yields the medium default.
func ParsePriority(raw string) (TicketPriority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return TicketPriorityMedium, nil
	}
	switch p := TicketPriority(raw); p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return p, nil
	}
	return "", apperrors.NewValidationError("invalid priority", map[string]any{
		"allowed": []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent},
	})
}

const (
	MinRating = 1
	MaxRating = 5
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Priority     TicketPriority
	Status       TicketStatus
	CreatorID    string
	AssigneeID   *string
	DepartmentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
	Rating       *int
}

// IsAssigned reports whether the ticket has an assignee.
func (t *Ticket) IsAssigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// IsCreator reports whether userID raised the ticket.
func (t *Ticket) IsCreator(userID string) bool {
	return t.CreatorID == userID
}

// IsAssignee reports whether userID currently holds the ticket.
func (t *Ticket) IsAssignee(userID string) bool {
	return t.IsAssigned() && *t.AssigneeID == userID
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusResolved},
	TicketStatusInProgress: {TicketStatusResolved},
	TicketStatusResolved:   {TicketStatusClosed},
	TicketStatusClosed:     {TicketStatusInProgress},
}

// CanTransition reports whether the lifecycle permits current -> next.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (t *Ticket) checkTransition(next TicketStatus) error {
	if !CanTransition(t.Status, next) {
		return apperrors.NewConflict("invalid status transition", map[string]any{
			"ticket_id": t.ID,
			"from":      t.Status,
			"to":        next,
		})
	}
	return nil
}

// Resolve marks the ticket resolved at now.
func (t *Ticket) Resolve(now time.Time) error {
	if err := t.checkTransition(TicketStatusResolved); err != nil {
		return err
	}
	t.Status = TicketStatusResolved
	t.ResolvedAt = &now
	return nil
}

// Confirm closes a resolved ticket, optionally recording a rating.
func (t *Ticket) Confirm(rating *int) error {
	if err := t.checkTransition(TicketStatusClosed); err != nil {
		return err
	}
	if rating != nil && (*rating < MinRating || *rating > MaxRating) {
		return apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": *rating})
	}
	t.Status = TicketStatusClosed
	if rating != nil {
		r := *rating
		t.Rating = &r
	}
	return nil
}

// Reopen moves a closed ticket back into progress, discarding rating and resolution time.
func (t *Ticket) Reopen() error {
	if err := t.checkTransition(TicketStatusInProgress); err != nil {
		return err
	}
	t.Status = TicketStatusInProgress
	t.Rating = nil
	t.ResolvedAt = nil
	return nil
}
