package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// ConfirmTicketRequest optionally rates the resolution.
type ConfirmTicketRequest struct {
	Rating *int `json:"rating"`
}

// AssignTicketRequest is used by both assignment paths. The admin path ignores DepartmentID.
type AssignTicketRequest struct {
	AgentID      string `json:"agent_id"`
	DepartmentID string `json:"department_id"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	CreatorID    string                `json:"created_by_id"`
	AssigneeID   *string               `json:"assigned_to_id"`
	DepartmentID *string               `json:"department_id"`
	Rating       *int                  `json:"rating"`
	ResolvedAt   *time.Time            `json:"resolved_at"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// AttachmentResponse metadata. URL points at the download route.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size"`
	UploadedBy  *string   `json:"uploaded_by_id"`
	UploadedAt  time.Time `json:"uploaded_at"`
	URL         string    `json:"url"`
}

// CommentResponse is one chat message.
type CommentResponse struct {
	ID          string               `json:"id"`
	AuthorID    string               `json:"author_id"`
	Body        string               `json:"text"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ChatResponse is the ticket conversation view.
type ChatResponse struct {
	Ticket      TicketResponse       `json:"ticket"`
	Attachments []AttachmentResponse `json:"attachments"`
	Messages    []CommentResponse    `json:"messages"`
}

// DepartmentTicketsResponse splits an admin's queue.
type DepartmentTicketsResponse struct {
	Unassigned []TicketResponse `json:"unassigned"`
	Assigned   []TicketResponse `json:"assigned"`
}

// AssignmentResponse reports the outcome of either assignment path.
type AssignmentResponse struct {
	Ticket     TicketResponse      `json:"ticket"`
	Assignee   UserResponse        `json:"assignee"`
	Department *DepartmentResponse `json:"department,omitempty"`
}

// TicketStatsResponse holds per-status counts.
type TicketStatsResponse struct {
	Total    int                         `json:"total"`
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
}
