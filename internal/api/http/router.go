package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Assignment     *handlers.AssignmentHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/register-superadmin", cfg.Auth.RegisterSuperAdmin)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)

	authed := cfg.AuthMiddleware.Handle
	authGroup.Post("/logout", authed, cfg.Auth.Logout)
	authGroup.Post("/password/change", authed, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", authed)
	// Static segments are registered before /:id.
	tickets.Get("/unassigned", auth.RequireAction(policy.ActionListAllTickets), cfg.Tickets.ListUnassignedTickets)
	tickets.Get("/stats", auth.RequireAction(policy.ActionViewTicketStats), cfg.Tickets.Stats)
	tickets.Get("/", auth.RequireAction(policy.ActionListAllTickets), cfg.Tickets.ListAllTickets)
	tickets.Post("/", auth.RequireAction(policy.ActionCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", auth.RequireAction(policy.ActionDeleteTicket), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/attachments", cfg.Tickets.UploadAttachments)
	tickets.Post("/:id/messages", cfg.Tickets.PostMessage)
	tickets.Get("/:id/chat", cfg.Tickets.Chat)
	tickets.Get("/:id/files/:name", cfg.Tickets.DownloadFile)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)
	tickets.Post("/:id/confirm", cfg.Tickets.Confirm)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Put("/:id/assign", auth.RequireAction(policy.ActionForceAssignTicket), cfg.Assignment.ForceAssign)

	app.Get("/customer/tickets", authed, cfg.Tickets.ListCustomerTickets)
	app.Get("/agent/tickets", authed, cfg.Tickets.ListAgentTickets)

	admin := app.Group("/admin", authed)
	admin.Get("/tickets", cfg.Tickets.ListDepartmentTickets)
	admin.Put("/tickets/:id/assign", cfg.Assignment.AssignToAgent)
	admin.Post("/create-agent", auth.RequireAction(policy.ActionCreateAgent), cfg.Staff.CreateAgent)
	admin.Get("/agents", auth.RequireAction(policy.ActionListAgents), cfg.Staff.ListAgents)

	departments := app.Group("/departments", authed)
	departments.Get("/", cfg.Staff.ListDepartments)
	departments.Post("/", cfg.Staff.CreateDepartment)
	departments.Put("/:id", cfg.Staff.UpdateDepartment)
	departments.Delete("/:id", cfg.Staff.DeleteDepartment)

	super := app.Group("/superadmin", authed, auth.RequireAction(policy.ActionManageUsers))
	super.Post("/create-admin", cfg.Staff.CreateAdmin)
	super.Post("/create-agent", cfg.Staff.CreateAgent)
	super.Get("/admins", cfg.Staff.ListAdmins)
	super.Get("/agents", cfg.Staff.ListAgents)
	super.Get("/customers", cfg.Staff.ListCustomers)
	super.Put("/admin/:id/toggle-status", cfg.Staff.ToggleAdminStatus)
	for path, role := range map[string]domain.Role{
		"/admin/:id":    domain.RoleAdmin,
		"/agent/:id":    domain.RoleAgent,
		"/customer/:id": domain.RoleCustomer,
	} {
		super.Put(path, cfg.Staff.UpdateUser(role))
		super.Delete(path, cfg.Staff.DeleteUser(role))
	}
}
