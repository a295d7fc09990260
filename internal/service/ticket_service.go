package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates the ticket lifecycle, chat and attachments.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	blobs       storage.Store
	dispatcher  events.Dispatcher
	now         Clock
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	Blobs          storage.Store
	Dispatcher     events.Dispatcher
	Clock          Clock
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		blobs:       deps.Blobs,
		dispatcher:  deps.Dispatcher,
		now:         defaultClock(deps.Clock),
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
}

// UploadFile is one client file. Open is called only after the whole batch passes validation.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// ChatView is a ticket with its files and conversation.
type ChatView struct {
	Ticket      *domain.Ticket
	Attachments []domain.Attachment
	Comments    []domain.Comment
}

// DepartmentTickets splits an admin's department queue.
type DepartmentTickets struct {
	Unassigned []domain.Ticket
	Assigned   []domain.Ticket
}

// TicketStats holds per-status counts.
type TicketStats struct {
	Total    int
	ByStatus map[domain.TicketStatus]int
}

// CreateTicket opens a ticket for a customer.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if err := policy.CheckRole(actor, policy.ActionCreateTicket); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority, err := domain.ParsePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		CreatorID:   actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Payload:  events.TicketCreatedPayload{Title: ticket.Title, Priority: ticket.Priority},
	})
	return ticket, nil
}

// UploadAttachments attaches a batch of files to the caller's own ticket. The batch is all or nothing.
func (s *TicketService) UploadAttachments(ctx context.Context, actor *domain.User, ticketID string, files []UploadFile) ([]domain.Attachment, error) {
	if err := policy.CheckRole(actor, policy.ActionUploadTicketAttachment); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionUploadTicketAttachment, policy.Target{Ticket: ticket}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("no files uploaded", nil)
	}
	if err := validateExtensions(files); err != nil {
		return nil, err
	}

	staged, err := s.stage(ctx, ticket.ID, actor.ID, files)
	if err != nil {
		return nil, err
	}
	batch := make([]*domain.Attachment, len(staged))
	for i := range staged {
		batch[i] = &staged[i]
	}
	if err := s.attachments.CreateBatch(ctx, batch); err != nil {
		s.discard(staged)
		return nil, apperrors.MapError(err)
	}

	names := make([]string, len(staged))
	for i, att := range staged {
		names[i] = att.FileName
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventAttachmentsUploaded,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Payload:  events.AttachmentsUploadedPayload{Files: names},
	})
	return staged, nil
}

// PostMessage adds a chat message, optionally with files, from the ticket's creator or assignee.
func (s *TicketService) PostMessage(ctx context.Context, actor *domain.User, ticketID, text string, files []UploadFile) (*domain.Comment, error) {
	if err := policy.CheckRole(actor, policy.ActionPostMessage); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionPostMessage, policy.Target{Ticket: ticket}); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return nil, apperrors.NewValidationError("message text or files required", nil)
	}
	if err := validateExtensions(files); err != nil {
		return nil, err
	}

	staged, err := s.stage(ctx, ticket.ID, actor.ID, files)
	if err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		TicketID:    ticket.ID,
		AuthorID:    actor.ID,
		Body:        text,
		Attachments: staged,
	}
	if err := s.comments.CreateWithAttachments(ctx, comment); err != nil {
		s.discard(staged)
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: preview(text),
			Attachments: len(comment.Attachments),
		},
	})
	return comment, nil
}

// Chat returns the ticket with its attachments and messages.
func (s *TicketService) Chat(ctx context.Context, actor *domain.User, ticketID string) (*ChatView, error) {
	ticket, err := s.viewable(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ChatView{Ticket: ticket, Attachments: attachments, Comments: comments}, nil
}

// GetTicket returns a single ticket the caller may view.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.viewable(ctx, actor, ticketID)
}

func (s *TicketService) viewable(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := policy.CheckRole(actor, policy.ActionViewTicket); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionViewTicket, policy.Target{Ticket: ticket}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Resolve marks an assigned ticket resolved.
func (s *TicketService) Resolve(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, ticketID, policy.ActionResolveTicket, events.EventTicketResolved, func(t *domain.Ticket) error {
		return t.Resolve(s.now())
	})
}

// Confirm closes a resolved ticket, optionally rating it 1-5.
func (s *TicketService) Confirm(ctx context.Context, actor *domain.User, ticketID string, rating *int) (*domain.Ticket, error) {
	return s.transition(ctx, actor, ticketID, policy.ActionConfirmTicket, events.EventTicketConfirmed, func(t *domain.Ticket) error {
		return t.Confirm(rating)
	})
}

// Reopen moves a closed ticket back to in_progress.
func (s *TicketService) Reopen(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, ticketID, policy.ActionReopenTicket, events.EventTicketReopened, func(t *domain.Ticket) error {
		return t.Reopen()
	})
}

func (s *TicketService) transition(ctx context.Context, actor *domain.User, ticketID string, action policy.Action, eventType events.EventType, apply func(*domain.Ticket) error) (*domain.Ticket, error) {
	if err := policy.CheckRole(actor, action); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, action, policy.Target{Ticket: ticket}); err != nil {
		return nil, err
	}

	previous := ticket.Status
	if err := apply(ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateLifecycle(ctx, ticket, previous); err != nil {
		return nil, staleWrite(err, "ticket state changed", map[string]any{"ticket_id": ticket.ID, "expected": previous})
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Payload: events.TicketStatusPayload{
			OldStatus: previous,
			NewStatus: ticket.Status,
			Rating:    ticket.Rating,
		},
	})
	return ticket, nil
}

// ListOwnTickets returns the customer's tickets, newest first.
func (s *TicketService) ListOwnTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := policy.CheckRole(actor, policy.ActionListOwnTickets); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.TicketFilter{CreatorID: &actor.ID})
}

// ListAssignedTickets returns the tickets currently held by the agent.
func (s *TicketService) ListAssignedTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := policy.CheckRole(actor, policy.ActionListAssignedTickets); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.TicketFilter{AssigneeID: &actor.ID})
}

// ListDepartmentTickets returns the admin's department queue. An admin without a department sees nothing.
func (s *TicketService) ListDepartmentTickets(ctx context.Context, actor *domain.User) (*DepartmentTickets, error) {
	if err := policy.CheckRole(actor, policy.ActionListDepartmentTickets); err != nil {
		return nil, err
	}
	result := &DepartmentTickets{Unassigned: []domain.Ticket{}, Assigned: []domain.Ticket{}}
	if actor.DepartmentID == nil {
		return result, nil
	}
	tickets, err := s.list(ctx, repository.TicketFilter{DepartmentID: actor.DepartmentID})
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if t.IsAssigned() {
			result.Assigned = append(result.Assigned, t)
		} else {
			result.Unassigned = append(result.Unassigned, t)
		}
	}
	return result, nil
}

// ListAllTickets returns every ticket.
func (s *TicketService) ListAllTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := policy.CheckRole(actor, policy.ActionListAllTickets); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.TicketFilter{})
}

// ListUnassignedTickets returns tickets nobody holds.
func (s *TicketService) ListUnassignedTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := policy.CheckRole(actor, policy.ActionListAllTickets); err != nil {
		return nil, err
	}
	unassigned := false
	return s.list(ctx, repository.TicketFilter{Assigned: &unassigned})
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// Stats counts tickets per status.
func (s *TicketService) Stats(ctx context.Context, actor *domain.User) (*TicketStats, error) {
	if err := policy.CheckRole(actor, policy.ActionViewTicketStats); err != nil {
		return nil, err
	}
	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats := &TicketStats{ByStatus: make(map[domain.TicketStatus]int, len(domain.TicketStatuses))}
	for _, status := range domain.TicketStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

// OpenAttachment streams a stored file after a view check. The caller closes the reader.
func (s *TicketService) OpenAttachment(ctx context.Context, actor *domain.User, ticketID, storedName string) (*domain.Attachment, io.ReadCloser, error) {
	ticket, err := s.viewable(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, err
	}
	locator := storage.Locator(storage.TicketFolder(ticket.ID), storedName)
	notFound := apperrors.NewNotFound("file", map[string]any{"ticket_id": ticket.ID, "name": storedName})

	att, err := s.attachments.GetByPath(ctx, ticket.ID, locator)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFound
		}
		return nil, nil, apperrors.MapError(err)
	}
	rc, err := s.blobs.Open(ctx, att.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, notFound
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	return att, rc, nil
}

// DeleteTicket removes a ticket with its comments, attachments and stored files.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	if err := policy.CheckRole(actor, policy.ActionDeleteTicket); err != nil {
		return err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	// The records are gone, so a failed folder removal is reported on the event instead of the caller.
	payload := events.TicketDeletedPayload{Folder: storage.TicketFolder(ticket.ID)}
	if err := s.blobs.DeleteFolder(ctx, payload.Folder); err != nil {
		payload.CleanupError = err.Error()
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Payload:  payload,
	})
	return nil
}

func validateExtensions(files []UploadFile) error {
	var rejected []string
	for _, f := range files {
		if !domain.IsAllowedAttachment(f.Name) {
			rejected = append(rejected, f.Name)
		}
	}
	if len(rejected) > 0 {
		return apperrors.NewValidationError("file type not allowed", map[string]any{
			"files":   rejected,
			"allowed": domain.AllowedExtensions(),
		})
	}
	return nil
}

// stage writes every file to blob storage. On failure the files already written are removed.
func (s *TicketService) stage(ctx context.Context, ticketID, uploaderID string, files []UploadFile) ([]domain.Attachment, error) {
	folder := storage.TicketFolder(ticketID)
	staged := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		obj, err := s.saveOne(ctx, folder, f)
		if err != nil {
			s.discard(staged)
			return nil, apperrors.NewInternalError(err)
		}
		staged = append(staged, domain.Attachment{
			TicketID:     ticketID,
			FileName:     f.Name,
			StoragePath:  obj.Locator,
			ContentType:  storage.ContentType(f.Name),
			SizeBytes:    obj.Size,
			UploadedByID: strPtr(uploaderID),
		})
	}
	return staged, nil
}

func (s *TicketService) saveOne(ctx context.Context, folder string, f UploadFile) (storage.Object, error) {
	rc, err := f.Open()
	if err != nil {
		return storage.Object{}, err
	}
	defer rc.Close()
	return s.blobs.Save(ctx, folder, f.Name, rc)
}

// discard removes staged blobs. It runs on a fresh context so a cancelled request still cleans up.
func (s *TicketService) discard(staged []domain.Attachment) {
	ctx := context.Background()
	for _, att := range staged {
		_ = s.blobs.Delete(ctx, att.StoragePath)
	}
}

func preview(body string) string {
	const limit = 120
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}
