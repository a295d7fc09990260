package policy

import (
	"net/http"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var allActions = []Action{
	ActionCreateTicket, ActionUploadTicketAttachment, ActionPostMessage, ActionViewTicket,
	ActionResolveTicket, ActionConfirmTicket, ActionReopenTicket, ActionAssignTicket,
	ActionForceAssignTicket, ActionDeleteTicket, ActionListOwnTickets, ActionListAssignedTickets,
	ActionListDepartmentTickets, ActionListAllTickets, ActionViewTicketStats, ActionCreateDepartment,
	ActionListDepartments, ActionManageDepartment, ActionCreateAdmin, ActionCreateAgent,
	ActionListAgents, ActionListUsers, ActionManageUsers,
}

var allRoles = []domain.Role{domain.RoleCustomer, domain.RoleAgent, domain.RoleAdmin, domain.RoleSuperAdmin}

func strPtr(s string) *string { return &s }

func user(id string, role domain.Role, dept *string) *domain.User {
	return &domain.User{ID: id, Role: role, Active: true, DepartmentID: dept}
}

func TestRolesOutsideTableAreDenied(t *testing.T) {
	for _, role := range allRoles {
		actor := user("u", role, strPtr("d1"))
		for _, action := range allActions {
			if Permits(role, action) {
				continue
			}
			err := Authorize(actor, action, Target{})
			if !apperrors.IsStatus(err, http.StatusForbidden) {
				t.Errorf("role %s action %s: expected forbidden, got %v", role, action, err)
			}
		}
	}
}

func TestRoleTable(t *testing.T) {
	granted := map[domain.Role][]Action{
		domain.RoleCustomer:   {ActionCreateTicket, ActionUploadTicketAttachment, ActionConfirmTicket, ActionReopenTicket},
		domain.RoleAgent:      {ActionResolveTicket, ActionListAssignedTickets},
		domain.RoleAdmin:      {ActionCreateAgent, ActionAssignTicket, ActionListDepartmentTickets},
		domain.RoleSuperAdmin: {ActionCreateDepartment, ActionCreateAdmin, ActionCreateAgent, ActionManageUsers, ActionForceAssignTicket},
	}
	for role, list := range granted {
		for _, action := range list {
			if !Permits(role, action) {
				t.Errorf("expected %s to be granted %s", role, action)
			}
		}
	}
	denied := map[domain.Role][]Action{
		domain.RoleCustomer:   {ActionResolveTicket, ActionAssignTicket, ActionCreateAgent},
		domain.RoleAgent:      {ActionCreateTicket, ActionConfirmTicket, ActionAssignTicket},
		domain.RoleAdmin:      {ActionForceAssignTicket, ActionCreateAdmin, ActionCreateDepartment, ActionResolveTicket},
		domain.RoleSuperAdmin: {ActionCreateTicket, ActionResolveTicket, ActionPostMessage, ActionAssignTicket},
	}
	for role, list := range denied {
		for _, action := range list {
			if Permits(role, action) {
				t.Errorf("expected %s to be denied %s", role, action)
			}
		}
	}
}

func TestCheckRoleRejectsMissingAndInactiveActors(t *testing.T) {
	if err := CheckRole(nil, ActionCreateTicket); !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("nil actor: expected forbidden, got %v", err)
	}
	inactive := user("c", domain.RoleCustomer, nil)
	inactive.Active = false
	if err := CheckRole(inactive, ActionCreateTicket); !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("inactive actor: expected forbidden, got %v", err)
	}
}

func TestTicketScopes(t *testing.T) {
	dept := strPtr("d1")
	other := strPtr("d2")
	customer := user("c1", domain.RoleCustomer, nil)
	stranger := user("c2", domain.RoleCustomer, nil)
	agent := user("a1", domain.RoleAgent, dept)
	otherAgent := user("a2", domain.RoleAgent, dept)
	admin := user("ad1", domain.RoleAdmin, dept)
	foreignAdmin := user("ad2", domain.RoleAdmin, other)
	super := user("s1", domain.RoleSuperAdmin, nil)

	ticket := &domain.Ticket{ID: "t1", CreatorID: customer.ID, AssigneeID: strPtr(agent.ID), DepartmentID: dept}
	target := Target{Ticket: ticket}

	cases := []struct {
		name   string
		actor  *domain.User
		action Action
		allow  bool
	}{
		{"creator confirms", customer, ActionConfirmTicket, true},
		{"stranger confirms", stranger, ActionConfirmTicket, false},
		{"creator uploads", customer, ActionUploadTicketAttachment, true},
		{"stranger uploads", stranger, ActionUploadTicketAttachment, false},
		{"assignee resolves", agent, ActionResolveTicket, true},
		{"other agent resolves", otherAgent, ActionResolveTicket, false},
		{"creator posts", customer, ActionPostMessage, true},
		{"assignee posts", agent, ActionPostMessage, true},
		{"admin posts without holding", admin, ActionPostMessage, false},
		{"admin views department ticket", admin, ActionViewTicket, true},
		{"foreign admin views", foreignAdmin, ActionViewTicket, false},
		{"other agent views", otherAgent, ActionViewTicket, false},
		{"super views", super, ActionViewTicket, true},
		{"admin assigns in department", admin, ActionAssignTicket, true},
		{"foreign admin assigns", foreignAdmin, ActionAssignTicket, false},
	}
	for _, tc := range cases {
		err := Authorize(tc.actor, tc.action, target)
		if tc.allow && err != nil {
			t.Errorf("%s: expected allow, got %v", tc.name, err)
		}
		if !tc.allow && !apperrors.IsStatus(err, http.StatusForbidden) {
			t.Errorf("%s: expected forbidden, got %v", tc.name, err)
		}
	}
}

func TestAdminMayClaimUnboundTicket(t *testing.T) {
	admin := user("ad1", domain.RoleAdmin, strPtr("d1"))
	unbound := &domain.Ticket{ID: "t2", CreatorID: "c1"}
	if err := Authorize(admin, ActionAssignTicket, Target{Ticket: unbound}); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	homeless := user("ad3", domain.RoleAdmin, nil)
	if err := Authorize(homeless, ActionAssignTicket, Target{Ticket: unbound}); !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("admin without department: expected forbidden, got %v", err)
	}
}

func TestCreateAgentDepartmentScope(t *testing.T) {
	admin := user("ad1", domain.RoleAdmin, strPtr("d1"))
	if err := Authorize(admin, ActionCreateAgent, Target{DepartmentID: strPtr("d1")}); err != nil {
		t.Fatalf("own department: %v", err)
	}
	if err := Authorize(admin, ActionCreateAgent, Target{DepartmentID: strPtr("d2")}); !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("foreign department: expected forbidden, got %v", err)
	}
	super := user("s1", domain.RoleSuperAdmin, nil)
	if err := Authorize(super, ActionCreateAgent, Target{DepartmentID: strPtr("d2")}); err != nil {
		t.Fatalf("super: %v", err)
	}
}
