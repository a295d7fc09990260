package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketConfirmed     EventType = "ticket_confirmed"
	EventTicketReopened      EventType = "ticket_reopened"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventCommentAdded        EventType = "comment_added"
	EventAttachmentsUploaded EventType = "attachments_uploaded"
)

// AllEventTypes lists every type a sink may subscribe to.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketAssigned,
	EventTicketResolved,
	EventTicketConfirmed,
	EventTicketReopened,
	EventTicketDeleted,
	EventCommentAdded,
	EventAttachmentsUploaded,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorOf builds an Actor from a user.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID   string  `json:"assignee_id"`
	DepartmentID *string `json:"department_id,omitempty"`
	Forced       bool    `json:"forced"`
}

// TicketStatusPayload is shared by resolve, confirm and reopen.
type TicketStatusPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Rating    *int                `json:"rating,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
	Attachments int    `json:"attachments"`
}

// TicketDeletedPayload reports the blob folder removal. CleanupError is set when files were left behind.
type TicketDeletedPayload struct {
	Folder       string `json:"folder"`
	CleanupError string `json:"cleanup_error,omitempty"`
}

// AttachmentsUploadedPayload payload.
type AttachmentsUploadedPayload struct {
	Files []string `json:"files"`
}
