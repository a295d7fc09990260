package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
)

const bcryptTestCost = 4

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	repos := memory.NewStore().Repositories()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tokens := auth.NewTokenManager("router-secret", 15*time.Minute, time.Hour)
	revocations := auth.NewMemoryRevocationStore()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	app := NewApp(config.AppConfig{Name: "helpdesk-test", BodyLimitMB: 1}, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("helpdesk-test", "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Auth: handlers.NewAuthHandler(service.NewAuthService(service.AuthDependencies{
			UserRepo: repos.Users, Tokens: tokens, Revocation: revocations, BcryptCost: bcryptTestCost,
		})),
		Tickets: handlers.NewTicketsHandler(service.NewTicketService(service.TicketDependencies{
			TicketRepo: repos.Tickets, CommentRepo: repos.Comments, AttachmentRepo: repos.Attachments,
			Blobs: blobs, Dispatcher: dispatcher,
		})),
		Assignment: handlers.NewAssignmentHandler(service.NewAssignmentService(service.AssignmentDependencies{
			TicketRepo: repos.Tickets, UserRepo: repos.Users, DepartmentRepo: repos.Departments, Dispatcher: dispatcher,
		})),
		Staff: handlers.NewStaffHandler(service.NewDirectoryService(service.DirectoryDependencies{
			DepartmentRepo: repos.Departments, UserRepo: repos.Users, BcryptCost: bcryptTestCost,
		})),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, revocations, repos.Users),
	})
	return app
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func (r response) decode(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(r.body, &out); err != nil {
		t.Fatalf("decode %q: %v", r.body, err)
	}
	return out
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	data, ok := r.decode(t)["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data object in %s", r.body)
	}
	return data
}

func (r response) list(t *testing.T) []any {
	t.Helper()
	items, ok := r.decode(t)["data"].([]any)
	if !ok {
		t.Fatalf("no data list in %s", r.body)
	}
	return items
}

func (r response) errorCode(t *testing.T) string {
	t.Helper()
	envelope, ok := r.decode(t)["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error envelope in %s", r.body)
	}
	code, _ := envelope["code"].(string)
	return code
}

func do(t *testing.T, app *fiber.App, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return response{status: resp.StatusCode, body: body, header: resp.Header}
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return do(t, app, req, token)
}

func doMultipart(t *testing.T, app *fiber.App, path, token string, fields map[string]string, files map[string]string) response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(content))
	}
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return do(t, app, req, token)
}

func expect(t *testing.T, r response, status int) {
	t.Helper()
	if r.status != status {
		t.Fatalf("status %d, want %d: %s", r.status, status, r.body)
	}
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	r := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	expect(t, r, http.StatusOK)
	authBlock := r.data(t)["auth"].(map[string]any)
	return authBlock["access_token"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	expect(t, doJSON(t, app, http.MethodGet, "/health/live", "", nil), http.StatusOK)

	ready := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	expect(t, ready, http.StatusOK)
	deps := ready.decode(t)["dependencies"].(map[string]any)
	if deps["postgres"] != "disabled" || deps["redis"] != "disabled" {
		t.Fatalf("unexpected dependency report %v", deps)
	}

	missing := doJSON(t, app, http.MethodGet, "/customer/tickets", "", nil)
	expect(t, missing, http.StatusUnauthorized)
	if code := missing.errorCode(t); code != "UNAUTHORIZED" {
		t.Fatalf("unexpected error code %q", code)
	}

	metrics := doJSON(t, app, http.MethodGet, "/metrics", "", nil)
	expect(t, metrics, http.StatusOK)
	if !strings.Contains(string(metrics.body), "/health/live|GET|200") {
		t.Fatalf("metrics missing live probe counter: %s", metrics.body)
	}
	if !strings.Contains(string(metrics.body), "UNAUTHORIZED") {
		t.Fatalf("metrics missing error counter: %s", metrics.body)
	}
}

func TestHelpdeskFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	expect(t, doJSON(t, app, http.MethodPost, "/auth/register-superadmin", "", map[string]string{
		"name": "Sue", "email": "sue@example.com", "password": "secret123",
	}), http.StatusCreated)
	super := login(t, app, "sue@example.com", "secret123")

	dept := doJSON(t, app, http.MethodPost, "/departments", super, map[string]string{"name": "IT"})
	expect(t, dept, http.StatusCreated)
	deptID := dept.data(t)["id"].(string)

	expect(t, doJSON(t, app, http.MethodPost, "/superadmin/create-admin", super, map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret123", "department": "IT",
	}), http.StatusCreated)
	admin := login(t, app, "ada@example.com", "secret123")

	agentResp := doJSON(t, app, http.MethodPost, "/admin/create-agent", admin, map[string]string{
		"name": "Abe", "email": "abe@example.com", "password": "secret123",
	})
	expect(t, agentResp, http.StatusCreated)
	agentID := agentResp.data(t)["user"].(map[string]any)["id"].(string)
	agent := login(t, app, "abe@example.com", "secret123")

	expect(t, doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Cara", "email": "cara@example.com", "password": "secret123",
	}), http.StatusCreated)
	customer := login(t, app, "cara@example.com", "secret123")

	created := doJSON(t, app, http.MethodPost, "/tickets", customer, map[string]string{"title": "Printer broken", "priority": "high"})
	expect(t, created, http.StatusCreated)
	ticket := created.data(t)
	ticketID := ticket["id"].(string)
	if ticket["status"] != "open" || ticket["priority"] != "high" || ticket["assigned_to_id"] != nil {
		t.Fatalf("unexpected ticket %v", ticket)
	}
	expect(t, doJSON(t, app, http.MethodPost, "/tickets", agent, map[string]string{"title": "x"}), http.StatusForbidden)

	rejected := doMultipart(t, app, "/tickets/"+ticketID+"/attachments", customer, nil, map[string]string{
		"ok.png": "png", "bad.exe": "MZ",
	})
	expect(t, rejected, http.StatusBadRequest)
	uploaded := doMultipart(t, app, "/tickets/"+ticketID+"/attachments", customer, nil, map[string]string{"shot.png": "pixels"})
	expect(t, uploaded, http.StatusCreated)
	fileURL := uploaded.list(t)[0].(map[string]any)["url"].(string)

	download := do(t, app, httptest.NewRequest(http.MethodGet, fileURL, nil), customer)
	expect(t, download, http.StatusOK)
	if string(download.body) != "pixels" || download.header.Get(fiber.HeaderContentType) != "image/png" {
		t.Fatalf("unexpected download %q %v", download.body, download.header)
	}

	unassigned := doJSON(t, app, http.MethodGet, "/tickets/unassigned", super, nil)
	expect(t, unassigned, http.StatusOK)
	if len(unassigned.list(t)) != 1 {
		t.Fatalf("expected one unassigned ticket: %s", unassigned.body)
	}

	expect(t, doJSON(t, app, http.MethodPut, "/admin/tickets/"+ticketID+"/assign", admin, map[string]string{"agent_id": agentID}), http.StatusOK)
	again := doJSON(t, app, http.MethodPut, "/admin/tickets/"+ticketID+"/assign", admin, map[string]string{"agent_id": agentID})
	expect(t, again, http.StatusConflict)
	if again.errorCode(t) != "CONFLICT" {
		t.Fatalf("unexpected conflict body %s", again.body)
	}

	expect(t, doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/messages", agent, map[string]string{"text": "on it"}), http.StatusCreated)
	expect(t, doMultipart(t, app, "/tickets/"+ticketID+"/messages", customer, map[string]string{"text": "log attached"}, map[string]string{"log.pdf": "%PDF"}), http.StatusCreated)
	expect(t, doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/messages", super, map[string]string{"text": "hello"}), http.StatusForbidden)

	chat := doJSON(t, app, http.MethodGet, "/tickets/"+ticketID+"/chat", admin, nil)
	expect(t, chat, http.StatusOK)
	if msgs := chat.data(t)["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("expected 2 messages: %s", chat.body)
	}

	expect(t, doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/resolve", agent, nil), http.StatusOK)
	expect(t, doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/confirm", customer, map[string]int{"rating": 9}), http.StatusBadRequest)
	closed := doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/confirm", customer, map[string]int{"rating": 5})
	expect(t, closed, http.StatusOK)
	if closed.data(t)["status"] != "closed" || closed.data(t)["rating"] != float64(5) {
		t.Fatalf("unexpected closed ticket %s", closed.body)
	}

	stats := doJSON(t, app, http.MethodGet, "/tickets/stats", super, nil)
	expect(t, stats, http.StatusOK)
	if stats.data(t)["total"] != float64(1) {
		t.Fatalf("unexpected stats %s", stats.body)
	}
	expect(t, doJSON(t, app, http.MethodGet, "/tickets/stats", admin, nil), http.StatusForbidden)

	force := doJSON(t, app, http.MethodPut, "/tickets/"+ticketID+"/assign", super, map[string]string{"department_id": deptID})
	expect(t, force, http.StatusOK)

	expect(t, doJSON(t, app, http.MethodDelete, "/tickets/"+ticketID, super, nil), http.StatusNoContent)
	expect(t, doJSON(t, app, http.MethodGet, "/tickets/"+ticketID, super, nil), http.StatusNotFound)
}

func TestLogoutRevokesTokens(t *testing.T) {
	app := newTestApp(t)
	expect(t, doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Cara", "email": "cara@example.com", "password": "secret123",
	}), http.StatusCreated)

	r := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": "cara@example.com", "password": "secret123"})
	expect(t, r, http.StatusOK)
	authBlock := r.data(t)["auth"].(map[string]any)
	access := authBlock["access_token"].(string)
	refresh := authBlock["refresh_token"].(string)

	refreshed := doJSON(t, app, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	expect(t, refreshed, http.StatusOK)

	expect(t, doJSON(t, app, http.MethodPost, "/auth/logout", access, map[string]string{"refresh_token": refresh}), http.StatusOK)
	expect(t, doJSON(t, app, http.MethodGet, "/customer/tickets", access, nil), http.StatusUnauthorized)
	expect(t, doJSON(t, app, http.MethodPost, "/auth/refresh", refresh, nil), http.StatusUnauthorized)
}

func TestSuperAdminRoutesRequireRole(t *testing.T) {
	app := newTestApp(t)
	expect(t, doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Cara", "email": "cara@example.com", "password": "secret123",
	}), http.StatusCreated)
	customer := login(t, app, "cara@example.com", "secret123")

	for _, path := range []string{"/superadmin/admins", "/superadmin/agents", "/superadmin/customers", "/departments"} {
		t.Run(path, func(t *testing.T) {
			expect(t, doJSON(t, app, http.MethodGet, path, customer, nil), http.StatusForbidden)
		})
	}
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	app := newTestApp(t)
	expect(t, doJSON(t, app, http.MethodPost, "/auth/register-superadmin", "", map[string]string{
		"name": "Sue", "email": "sue@example.com", "password": "secret123",
	}), http.StatusCreated)
	super := login(t, app, "sue@example.com", "secret123")

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/tickets/abc", nil},
		{http.MethodDelete, "/tickets/abc", nil},
		{http.MethodPut, "/tickets/abc/assign", map[string]string{"department_id": "abc"}},
		{http.MethodPut, "/departments/abc", map[string]string{"name": "Ops"}},
		{http.MethodDelete, "/departments/abc", nil},
		{http.MethodDelete, "/superadmin/agent/abc", nil},
		{http.MethodPut, "/superadmin/admin/abc/toggle-status", nil},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			r := doJSON(t, app, tc.method, tc.path, super, tc.body)
			expect(t, r, http.StatusNotFound)
			if r.errorCode(t) != "NOT_FOUND" {
				t.Fatalf("unexpected body %s", r.body)
			}
		})
	}
}
