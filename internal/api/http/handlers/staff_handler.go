package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StaffHandler exposes department and account management.
type StaffHandler struct {
	directory *service.DirectoryService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(directory *service.DirectoryService) *StaffHandler {
	return &StaffHandler{directory: directory}
}

// CreateDepartment handles POST /departments.
func (h *StaffHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	dept, err := h.directory.CreateDepartment(c.UserContext(), auth.CurrentUser(c), deref(req.Name), deref(req.Description))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments handles GET /departments.
func (h *StaffHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.directory.ListDepartments(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		resp = append(resp, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// UpdateDepartment handles PUT /departments/:id.
func (h *StaffHandler) UpdateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	dept, err := h.directory.UpdateDepartment(c.UserContext(), auth.CurrentUser(c), c.Params("id"), service.DepartmentPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// DeleteDepartment handles DELETE /departments/:id.
func (h *StaffHandler) DeleteDepartment(c *fiber.Ctx) error {
	if err := h.directory.DeleteDepartment(c.UserContext(), auth.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateAdmin handles POST /superadmin/create-admin.
func (h *StaffHandler) CreateAdmin(c *fiber.Ctx) error {
	input, err := staffInput(c)
	if err != nil {
		return err
	}
	user, dept, err := h.directory.CreateAdmin(c.UserContext(), auth.CurrentUser(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StaffCreatedResponse{
		User:       userResponse(user),
		Department: departmentResponse(dept),
	}})
}

// CreateAgent handles POST /admin/create-agent and POST /superadmin/create-agent.
func (h *StaffHandler) CreateAgent(c *fiber.Ctx) error {
	input, err := staffInput(c)
	if err != nil {
		return err
	}
	user, dept, err := h.directory.CreateAgent(c.UserContext(), auth.CurrentUser(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StaffCreatedResponse{
		User:       userResponse(user),
		Department: departmentResponse(dept),
	}})
}

// ListAgents handles GET /admin/agents and GET /superadmin/agents. ?name= filters by substring.
func (h *StaffHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.directory.ListAgents(c.UserContext(), auth.CurrentUser(c), c.Query("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(agents)})
}

// ListAdmins handles GET /superadmin/admins.
func (h *StaffHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.directory.ListAdmins(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(admins)})
}

// ListCustomers handles GET /superadmin/customers.
func (h *StaffHandler) ListCustomers(c *fiber.Ctx) error {
	customers, err := h.directory.ListCustomers(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(customers)})
}

// UpdateUser returns a PUT handler for accounts of the given role.
func (h *StaffHandler) UpdateUser(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.UserUpdateRequest
		if err := parseJSON(c, &req); err != nil {
			return err
		}
		user, err := h.directory.UpdateUser(c.UserContext(), auth.CurrentUser(c), c.Params("id"), role, service.UserPatch{
			Name:       req.Name,
			Email:      req.Email,
			Password:   req.Password,
			Active:     req.Active,
			Department: req.Department,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": userResponse(user)})
	}
}

// DeleteUser returns a DELETE handler for accounts of the given role.
func (h *StaffHandler) DeleteUser(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.directory.DeleteUser(c.UserContext(), auth.CurrentUser(c), c.Params("id"), role); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	}
}

// ToggleAdminStatus handles PUT /superadmin/admin/:id/toggle-status.
func (h *StaffHandler) ToggleAdminStatus(c *fiber.Ctx) error {
	user, err := h.directory.ToggleAdminStatus(c.UserContext(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func staffInput(c *fiber.Ctx) (service.StaffInput, error) {
	var req dto.StaffCreateRequest
	if err := parseJSON(c, &req); err != nil {
		return service.StaffInput{}, err
	}
	return service.StaffInput{
		Credentials: service.Credentials{Name: req.Name, Email: req.Email, Password: req.Password},
		Department:  req.Department,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
