package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func strPtr(v string) *string { return &v }

func seed(t *testing.T) (repository.Set, *domain.Department, *domain.User, *domain.User, *domain.Ticket) {
	t.Helper()
	ctx := context.Background()
	repos := NewStore().Repositories()

	dept := &domain.Department{Name: "IT"}
	if err := repos.Departments.Create(ctx, dept); err != nil {
		t.Fatalf("create dept: %v", err)
	}
	customer := &domain.User{Name: "Cara", Email: "cara@example.com", Role: domain.RoleCustomer, Active: true}
	if err := repos.Users.Create(ctx, customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	agent := &domain.User{Name: "Abe", Email: "abe@example.com", Role: domain.RoleAgent, Active: true, DepartmentID: strPtr(dept.ID), CreatedBy: strPtr(customer.ID)}
	if err := repos.Users.Create(ctx, agent); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	ticket := &domain.Ticket{Title: "Printer broken", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh, CreatorID: customer.ID}
	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return repos, dept, customer, agent, ticket
}

func TestDuplicateEmailAndDepartmentName(t *testing.T) {
	ctx := context.Background()
	repos, _, _, _, _ := seed(t)

	dup := &domain.User{Name: "Other", Email: "CARA@example.com", Role: domain.RoleCustomer}
	if err := repos.Users.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	if err := repos.Departments.Create(ctx, &domain.Department{Name: "IT"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate department, got %v", err)
	}
}

func TestAssignIfUnassignedIsSingleShot(t *testing.T) {
	ctx := context.Background()
	repos, dept, _, agent, ticket := seed(t)

	ticket.AssigneeID = strPtr(agent.ID)
	ticket.DepartmentID = strPtr(dept.ID)
	if err := repos.Tickets.AssignIfUnassigned(ctx, ticket); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := repos.Tickets.AssignIfUnassigned(ctx, ticket); !errors.Is(err, repository.ErrStaleWrite) {
		t.Fatalf("expected stale write, got %v", err)
	}
	if err := repos.Tickets.ForceAssign(ctx, ticket); err != nil {
		t.Fatalf("force assign: %v", err)
	}

	missing := &domain.Ticket{ID: "nope"}
	if err := repos.Tickets.AssignIfUnassigned(ctx, missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateLifecycleComparesStatus(t *testing.T) {
	ctx := context.Background()
	repos, _, _, _, ticket := seed(t)

	ticket.Status = domain.TicketStatusResolved
	if err := repos.Tickets.UpdateLifecycle(ctx, ticket, domain.TicketStatusOpen); err != nil {
		t.Fatalf("update: %v", err)
	}
	ticket.Status = domain.TicketStatusClosed
	if err := repos.Tickets.UpdateLifecycle(ctx, ticket, domain.TicketStatusOpen); !errors.Is(err, repository.ErrStaleWrite) {
		t.Fatalf("expected stale write, got %v", err)
	}
	got, _ := repos.Tickets.GetByID(ctx, ticket.ID)
	if got.Status != domain.TicketStatusResolved {
		t.Fatalf("status overwritten: %s", got.Status)
	}
}

func TestDeleteUserNullsReferences(t *testing.T) {
	ctx := context.Background()
	repos, dept, customer, agent, ticket := seed(t)

	ticket.AssigneeID = strPtr(agent.ID)
	ticket.DepartmentID = strPtr(dept.ID)
	if err := repos.Tickets.ForceAssign(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	att := &domain.Attachment{TicketID: ticket.ID, FileName: "a.png", StoragePath: "ticket_x/1_a.png", UploadedByID: strPtr(agent.ID)}
	if err := repos.Attachments.CreateBatch(ctx, []*domain.Attachment{att}); err != nil {
		t.Fatal(err)
	}

	if err := repos.Users.Delete(ctx, agent.ID); err != nil {
		t.Fatalf("delete agent: %v", err)
	}
	got, _ := repos.Tickets.GetByID(ctx, ticket.ID)
	if got.AssigneeID != nil {
		t.Fatalf("assignee should be nulled")
	}
	atts, _ := repos.Attachments.ListByTicket(ctx, ticket.ID)
	if len(atts) != 1 || atts[0].UploadedByID != nil {
		t.Fatalf("uploader should be nulled: %+v", atts)
	}

	if err := repos.Users.Delete(ctx, customer.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	got, _ = repos.Tickets.GetByID(ctx, ticket.ID)
	if got.CreatorID != customer.ID {
		t.Fatalf("creator reference must be left dangling")
	}
}

func TestDeleteDepartmentNullsReferences(t *testing.T) {
	ctx := context.Background()
	repos, dept, _, agent, ticket := seed(t)

	ticket.DepartmentID = strPtr(dept.ID)
	if err := repos.Tickets.ForceAssign(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	if err := repos.Departments.Delete(ctx, dept.ID); err != nil {
		t.Fatalf("delete dept: %v", err)
	}
	u, _ := repos.Users.GetByID(ctx, agent.ID)
	if u.DepartmentID != nil {
		t.Fatalf("user department should be nulled")
	}
	tk, _ := repos.Tickets.GetByID(ctx, ticket.ID)
	if tk.DepartmentID != nil {
		t.Fatalf("ticket department should be nulled")
	}
}

func TestDeleteTicketCascades(t *testing.T) {
	ctx := context.Background()
	repos, _, customer, _, ticket := seed(t)

	comment := &domain.Comment{TicketID: ticket.ID, AuthorID: customer.ID, Body: "hi", Attachments: []domain.Attachment{{FileName: "x.pdf", StoragePath: "p"}}}
	if err := repos.Comments.CreateWithAttachments(ctx, comment); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := repos.Tickets.Delete(ctx, ticket.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	comments, _ := repos.Comments.ListByTicket(ctx, ticket.ID)
	if len(comments) != 0 {
		t.Fatalf("comments should cascade")
	}
	if _, err := repos.Attachments.GetByPath(ctx, ticket.ID, "p"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("attachments should cascade, got %v", err)
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repos, dept, customer, agent, first := seed(t)

	second := &domain.Ticket{Title: "Second", Status: domain.TicketStatusOpen, CreatorID: customer.ID, DepartmentID: strPtr(dept.ID), AssigneeID: strPtr(agent.ID)}
	if err := repos.Tickets.Create(ctx, second); err != nil {
		t.Fatal(err)
	}

	all, _ := repos.Tickets.List(ctx, repository.TicketFilter{CreatorID: strPtr(customer.ID)})
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}
	unassigned := false
	open, _ := repos.Tickets.List(ctx, repository.TicketFilter{Assigned: &unassigned})
	if len(open) != 1 || open[0].ID != first.ID {
		t.Fatalf("unexpected unassigned %+v", open)
	}
	role := domain.RoleAgent
	agents, _ := repos.Users.List(ctx, repository.UserFilter{Role: &role, DepartmentID: strPtr(dept.ID), NameContains: "ab"})
	if len(agents) != 1 || agents[0].ID != agent.ID {
		t.Fatalf("unexpected agents %+v", agents)
	}
	counts, _ := repos.Tickets.CountByStatus(ctx)
	if counts[domain.TicketStatusOpen] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	repos, _, _, _, ticket := seed(t)

	got, _ := repos.Tickets.GetByID(ctx, ticket.ID)
	got.Status = domain.TicketStatusClosed
	again, _ := repos.Tickets.GetByID(ctx, ticket.ID)
	if again.Status != domain.TicketStatusOpen {
		t.Fatalf("store mutated through returned pointer")
	}
}
