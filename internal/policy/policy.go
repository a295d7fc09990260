// Package policy maps (actor, action, target) to allow or deny.
//
// Every role check in the service flows through the single table below.
// Functions here are pure and never touch storage.
package policy

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionCreateTicket           Action = "ticket:create"
	ActionUploadTicketAttachment Action = "ticket:upload_attachment"
	ActionPostMessage            Action = "ticket:post_message"
	ActionViewTicket             Action = "ticket:view"
	ActionResolveTicket          Action = "ticket:resolve"
	ActionConfirmTicket          Action = "ticket:confirm"
	ActionReopenTicket           Action = "ticket:reopen"
	ActionAssignTicket           Action = "ticket:assign"
	ActionForceAssignTicket      Action = "ticket:force_assign"
	ActionDeleteTicket           Action = "ticket:delete"

	ActionListOwnTickets        Action = "tickets:list_own"
	ActionListAssignedTickets   Action = "tickets:list_assigned"
	ActionListDepartmentTickets Action = "tickets:list_department"
	ActionListAllTickets        Action = "tickets:list_all"
	ActionViewTicketStats       Action = "tickets:stats"

	ActionCreateDepartment Action = "department:create"
	ActionListDepartments  Action = "department:list"
	ActionManageDepartment Action = "department:manage"

	ActionCreateAdmin Action = "user:create_admin"
	ActionCreateAgent Action = "user:create_agent"
	ActionListAgents  Action = "user:list_agents"
	ActionListUsers   Action = "user:list"
	ActionManageUsers Action = "user:manage"
)

// Target carries the entity an action is applied to. Unused fields stay nil.
type Target struct {
	Ticket       *domain.Ticket
	DepartmentID *string
	User         *domain.User
}

func actions(list ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(list))
	for _, a := range list {
		set[a] = struct{}{}
	}
	return set
}

var permissions = map[domain.Role]map[Action]struct{}{
	domain.RoleCustomer: actions(
		ActionCreateTicket,
		ActionUploadTicketAttachment,
		ActionPostMessage,
		ActionViewTicket,
		ActionConfirmTicket,
		ActionReopenTicket,
		ActionListOwnTickets,
	),
	domain.RoleAgent: actions(
		ActionPostMessage,
		ActionViewTicket,
		ActionResolveTicket,
		ActionListAssignedTickets,
	),
	domain.RoleAdmin: actions(
		ActionPostMessage,
		ActionViewTicket,
		ActionAssignTicket,
		ActionListDepartmentTickets,
		ActionCreateAgent,
		ActionListAgents,
	),
	domain.RoleSuperAdmin: actions(
		ActionViewTicket,
		ActionForceAssignTicket,
		ActionDeleteTicket,
		ActionListAllTickets,
		ActionViewTicketStats,
		ActionCreateDepartment,
		ActionListDepartments,
		ActionManageDepartment,
		ActionCreateAdmin,
		ActionCreateAgent,
		ActionListAgents,
		ActionListUsers,
		ActionManageUsers,
	),
}

// Permits reports whether the role table grants action to role.
func Permits(role domain.Role, action Action) bool {
	_, ok := permissions[role][action]
	return ok
}

// CheckRole denies missing or inactive actors and roles the table does not grant.
func CheckRole(actor *domain.User, action Action) error {
	if actor == nil {
		return apperrors.NewForbidden("authentication required")
	}
	if !actor.Active {
		return apperrors.NewForbidden("account inactive")
	}
	if !Permits(actor.Role, action) {
		return apperrors.NewForbidden(roleDenial(action))
	}
	return nil
}

// Authorize runs CheckRole followed by the scope rule registered for action.
func Authorize(actor *domain.User, action Action, target Target) error {
	if err := CheckRole(actor, action); err != nil {
		return err
	}
	rule, ok := scopeRules[action]
	if !ok || rule(actor, target) {
		return nil
	}
	return apperrors.NewForbidden(scopeDenial(action))
}

type scopeRule func(actor *domain.User, target Target) bool

var scopeRules = map[Action]scopeRule{
	ActionUploadTicketAttachment: ownsTicket,
	ActionConfirmTicket:          ownsTicket,
	ActionReopenTicket:           ownsTicket,
	ActionResolveTicket:          holdsTicket,
	ActionPostMessage:            partyToTicket,
	ActionViewTicket:             canViewTicket,
	ActionAssignTicket:           canAssignInDepartment,
	ActionCreateAgent:            canStaffDepartment,
	ActionListAgents:             canStaffDepartment,
}

func ownsTicket(actor *domain.User, target Target) bool {
	return target.Ticket != nil && target.Ticket.IsCreator(actor.ID)
}

func holdsTicket(actor *domain.User, target Target) bool {
	return target.Ticket != nil && target.Ticket.IsAssignee(actor.ID)
}

func partyToTicket(actor *domain.User, target Target) bool {
	return ownsTicket(actor, target) || holdsTicket(actor, target)
}

func canViewTicket(actor *domain.User, target Target) bool {
	if target.Ticket == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleCustomer:
		return ownsTicket(actor, target)
	case domain.RoleAgent:
		return holdsTicket(actor, target)
	case domain.RoleAdmin:
		return holdsTicket(actor, target) || actor.InDepartment(target.Ticket.DepartmentID)
	}
	return false
}

// Unbound tickets may be claimed by any admin; bound ones only by their department's admin.
func canAssignInDepartment(actor *domain.User, target Target) bool {
	if target.Ticket == nil || actor.DepartmentID == nil {
		return false
	}
	if target.Ticket.DepartmentID == nil {
		return true
	}
	return actor.InDepartment(target.Ticket.DepartmentID)
}

func canStaffDepartment(actor *domain.User, target Target) bool {
	if actor.Role == domain.RoleSuperAdmin {
		return true
	}
	return actor.InDepartment(target.DepartmentID)
}

func roleDenial(action Action) string {
	switch action {
	case ActionCreateTicket:
		return "only customers can create tickets"
	case ActionResolveTicket:
		return "only agents can resolve tickets"
	case ActionConfirmTicket, ActionReopenTicket:
		return "only customers can confirm or reopen tickets"
	case ActionAssignTicket:
		return "only admins can assign tickets"
	case ActionCreateAgent:
		return "only admins can create agents"
	case ActionListAgents:
		return "only admins can view agents"
	}
	return "access denied"
}

func scopeDenial(action Action) string {
	switch action {
	case ActionUploadTicketAttachment:
		return "you can only upload to your own tickets"
	case ActionConfirmTicket, ActionReopenTicket:
		return "you can only act on your own tickets"
	case ActionResolveTicket:
		return "ticket is not assigned to you"
	case ActionPostMessage:
		return "only the ticket creator or assignee can post messages"
	case ActionAssignTicket:
		return "you can only assign tickets in your department"
	case ActionCreateAgent, ActionListAgents:
		return "you can only manage agents in your department"
	}
	return "access denied"
}
