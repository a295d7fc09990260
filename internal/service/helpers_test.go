package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const testCost = 4

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t          *testing.T
	ctx        context.Context
	repos      repository.Set
	blobs      *storage.LocalStore
	blobRoot   string
	dispatcher events.Dispatcher
	published  []events.Event

	tickets    *TicketService
	assignment *AssignmentService
	directory  *DirectoryService
	auth       *AuthService
	tokens     *auth.TokenManager
	revoked    auth.RevocationStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	blobs, err := storage.NewLocalStore(root)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	h := &harness{
		t:          t,
		ctx:        context.Background(),
		repos:      memory.NewStore().Repositories(),
		blobs:      blobs,
		blobRoot:   root,
		dispatcher: events.NewInMemoryDispatcher(),
		tokens:     auth.NewTokenManager("test-secret", 15*time.Minute, 720*time.Hour),
		revoked:    auth.NewMemoryRevocationStore(),
	}
	events.SubscribeAll(h.dispatcher, func(_ context.Context, e events.Event) error {
		h.published = append(h.published, e)
		return nil
	})
	h.wire()
	return h
}

func (h *harness) wire() {
	clock := func() time.Time { return fixedNow }
	h.tickets = NewTicketService(TicketDependencies{
		TicketRepo:     h.repos.Tickets,
		CommentRepo:    h.repos.Comments,
		AttachmentRepo: h.repos.Attachments,
		Blobs:          h.blobs,
		Dispatcher:     h.dispatcher,
		Clock:          clock,
	})
	h.assignment = NewAssignmentService(AssignmentDependencies{
		TicketRepo:     h.repos.Tickets,
		UserRepo:       h.repos.Users,
		DepartmentRepo: h.repos.Departments,
		Dispatcher:     h.dispatcher,
		Clock:          clock,
	})
	h.directory = NewDirectoryService(DirectoryDependencies{
		DepartmentRepo: h.repos.Departments,
		UserRepo:       h.repos.Users,
		BcryptCost:     testCost,
	})
	h.auth = NewAuthService(AuthDependencies{
		UserRepo:   h.repos.Users,
		Tokens:     h.tokens,
		Revocation: h.revoked,
		BcryptCost: testCost,
	})
}

func (h *harness) department(name string) *domain.Department {
	h.t.Helper()
	dept := &domain.Department{Name: name}
	if err := h.repos.Departments.Create(h.ctx, dept); err != nil {
		h.t.Fatalf("create department %s: %v", name, err)
	}
	return dept
}

func (h *harness) user(name string, role domain.Role, dept *domain.Department) *domain.User {
	h.t.Helper()
	hash, err := auth.HashPassword("secret123", testCost)
	if err != nil {
		h.t.Fatal(err)
	}
	u := &domain.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if dept != nil {
		u.DepartmentID = strPtr(dept.ID)
	}
	if err := h.repos.Users.Create(h.ctx, u); err != nil {
		h.t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (h *harness) ticket(creator *domain.User, title string) *domain.Ticket {
	h.t.Helper()
	ticket, err := h.tickets.CreateTicket(h.ctx, creator, TicketCreateInput{Title: title})
	if err != nil {
		h.t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func (h *harness) reload(id string) *domain.Ticket {
	h.t.Helper()
	ticket, err := h.repos.Tickets.GetByID(h.ctx, id)
	if err != nil {
		h.t.Fatalf("reload ticket: %v", err)
	}
	return ticket
}

func (h *harness) eventTypes() []events.EventType {
	out := make([]events.EventType, len(h.published))
	for i, e := range h.published {
		out[i] = e.Type
	}
	return out
}

func file(name, content string) UploadFile {
	return UploadFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func expectStatus(t *testing.T, err error, status int) {
	t.Helper()
	if !apperrors.IsStatus(err, status) {
		t.Fatalf("expected %d %s, got %v", status, http.StatusText(status), err)
	}
}

func intPtr(v int) *int { return &v }
