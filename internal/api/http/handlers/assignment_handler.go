package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AssignmentHandler exposes the admin and super admin assignment paths.
type AssignmentHandler struct {
	assignment *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignment: assignmentService}
}

// AssignToAgent PUT /admin/tickets/:id/assign.
func (h *AssignmentHandler) AssignToAgent(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	result, err := h.assignment.AssignToAgent(c.UserContext(), auth.CurrentUser(c), c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponse(result)})
}

// ForceAssign PUT /tickets/:id/assign.
func (h *AssignmentHandler) ForceAssign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	result, err := h.assignment.ForceAssign(c.UserContext(), auth.CurrentUser(c), c.Params("id"), req.DepartmentID, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponse(result)})
}

func assignmentResponse(result *service.Assignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		Ticket:   ticketResponse(result.Ticket),
		Assignee: userResponse(result.Assignee),
	}
	if result.Department != nil {
		dept := departmentResponse(result.Department)
		resp.Department = &dept
	}
	return resp
}
