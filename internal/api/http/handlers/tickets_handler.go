package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TicketsHandler manages ticket endpoints shared by customers and agents.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), auth.CurrentUser(c), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UploadAttachments POST /tickets/:id/attachments.
func (h *TicketsHandler) UploadAttachments(c *fiber.Ctx) error {
	files, _, err := multipartFiles(c)
	if err != nil {
		return err
	}
	atts, err := h.service.UploadAttachments(c.UserContext(), auth.CurrentUser(c), c.Params("id"), files)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponses(atts)})
}

// PostMessage POST /tickets/:id/messages. Accepts JSON {"text"} or a multipart form with text and files.
func (h *TicketsHandler) PostMessage(c *fiber.Ctx) error {
	var text string
	var files []service.UploadFile
	if isMultipart(c) {
		parsed, form, err := multipartFiles(c)
		if err != nil {
			return err
		}
		files = parsed
		text = formValue(form, "text")
	} else {
		var req struct {
			Text string `json:"text"`
		}
		if err := parseJSON(c, &req); err != nil {
			return err
		}
		text = req.Text
	}

	comment, err := h.service.PostMessage(c.UserContext(), auth.CurrentUser(c), c.Params("id"), text, files)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Chat GET /tickets/:id/chat.
func (h *TicketsHandler) Chat(c *fiber.Ctx) error {
	view, err := h.service.Chat(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	messages := make([]dto.CommentResponse, 0, len(view.Comments))
	for i := range view.Comments {
		messages = append(messages, commentResponse(&view.Comments[i]))
	}
	return c.JSON(fiber.Map{"data": dto.ChatResponse{
		Ticket:      ticketResponse(view.Ticket),
		Attachments: attachmentResponses(view.Attachments),
		Messages:    messages,
	}})
}

// DownloadFile GET /tickets/:id/files/:name.
func (h *TicketsHandler) DownloadFile(c *fiber.Ctx) error {
	att, rc, err := h.service.OpenAttachment(c.UserContext(), auth.CurrentUser(c), c.Params("id"), c.Params("name"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, att.ContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(att.FileName))
	return c.SendStream(rc, int(att.SizeBytes))
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	ticket, err := h.service.Resolve(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Confirm POST /tickets/:id/confirm.
func (h *TicketsHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmTicketRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Confirm(c.UserContext(), auth.CurrentUser(c), c.Params("id"), req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Reopen POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	ticket, err := h.service.Reopen(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListCustomerTickets GET /customer/tickets.
func (h *TicketsHandler) ListCustomerTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListOwnTickets(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListAgentTickets GET /agent/tickets.
func (h *TicketsHandler) ListAgentTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListAssignedTickets(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListDepartmentTickets GET /admin/tickets.
func (h *TicketsHandler) ListDepartmentTickets(c *fiber.Ctx) error {
	queue, err := h.service.ListDepartmentTickets(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DepartmentTicketsResponse{
		Unassigned: ticketResponses(queue.Unassigned),
		Assigned:   ticketResponses(queue.Assigned),
	}})
}

// ListAllTickets GET /tickets.
func (h *TicketsHandler) ListAllTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListAllTickets(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListUnassignedTickets GET /tickets/unassigned.
func (h *TicketsHandler) ListUnassignedTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListUnassignedTickets(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketStatsResponse{Total: stats.Total, ByStatus: stats.ByStatus}})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), auth.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
