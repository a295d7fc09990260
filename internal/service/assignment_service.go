package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	now         Clock
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
	Clock          Clock
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		now:         defaultClock(deps.Clock),
	}
}

// Assignment is the outcome of an assignment call.
type Assignment struct {
	Ticket     *domain.Ticket
	Assignee   *domain.User
	Department *domain.Department
}

// AssignToAgent lets a department admin hand an unassigned ticket to one of their agents.
// It never reassigns; a ticket without a department is bound to the admin's.
func (s *AssignmentService) AssignToAgent(ctx context.Context, admin *domain.User, ticketID, agentID string) (*Assignment, error) {
	if err := policy.CheckRole(admin, policy.ActionAssignTicket); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsAssigned() {
		return nil, alreadyAssigned(ticket.ID)
	}
	if err := policy.Authorize(admin, policy.ActionAssignTicket, policy.Target{Ticket: ticket}); err != nil {
		return nil, err
	}

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, apperrors.NewValidationError("agent_id is required", nil)
	}
	agent, err := loadUser(ctx, s.users, "agent", agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewValidationError("invalid agent", map[string]any{"agent_id": agentID})
	}
	if !agent.InDepartment(admin.DepartmentID) {
		return nil, apperrors.NewValidationError("agent must belong to your department", map[string]any{"agent_id": agentID})
	}

	if ticket.DepartmentID == nil {
		ticket.DepartmentID = strPtr(*admin.DepartmentID)
	}
	ticket.AssigneeID = strPtr(agent.ID)
	if err := s.tickets.AssignIfUnassigned(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, alreadyAssigned(ticket.ID)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishAssignment(ctx, admin, ticket, false)
	return &Assignment{Ticket: ticket, Assignee: agent}, nil
}

// ForceAssign routes a ticket into a department, overwriting any assignee.
// The department admin takes the ticket unless an agent of that department is named.
func (s *AssignmentService) ForceAssign(ctx context.Context, super *domain.User, ticketID, departmentID, agentID string) (*Assignment, error) {
	if err := policy.CheckRole(super, policy.ActionForceAssignTicket); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, apperrors.NewValidationError("department_id is required", nil)
	}
	dept, err := loadDepartment(ctx, s.departments, departmentID)
	if err != nil {
		return nil, err
	}

	admin, err := s.departmentAdmin(ctx, dept.ID)
	if err != nil {
		return nil, err
	}
	assignee := admin

	if agentID = strings.TrimSpace(agentID); agentID != "" {
		agent, err := loadUser(ctx, s.users, "agent", agentID)
		if err != nil {
			return nil, err
		}
		if agent.Role != domain.RoleAgent || !agent.InDepartment(&dept.ID) {
			return nil, apperrors.NewValidationError("invalid agent user", map[string]any{"agent_id": agentID, "department_id": dept.ID})
		}
		assignee = agent
	}

	ticket.DepartmentID = strPtr(dept.ID)
	ticket.AssigneeID = strPtr(assignee.ID)
	if err := s.tickets.ForceAssign(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAssignment(ctx, super, ticket, true)
	return &Assignment{Ticket: ticket, Assignee: assignee, Department: dept}, nil
}

func (s *AssignmentService) departmentAdmin(ctx context.Context, departmentID string) (*domain.User, error) {
	role := domain.RoleAdmin
	admins, err := s.users.List(ctx, repository.UserFilter{Role: &role, DepartmentID: &departmentID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(admins) == 0 {
		return nil, apperrors.NewNotFound("department admin", map[string]any{"department_id": departmentID})
	}
	return &admins[0], nil
}

func (s *AssignmentService) publishAssignment(ctx context.Context, actor *domain.User, ticket *domain.Ticket, forced bool) {
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Payload: events.TicketAssignedPayload{
			AssigneeID:   *ticket.AssigneeID,
			DepartmentID: ticket.DepartmentID,
			Forced:       forced,
		},
	})
}

func alreadyAssigned(ticketID string) error {
	return apperrors.NewConflict("ticket is already assigned", map[string]any{"ticket_id": ticketID})
}
