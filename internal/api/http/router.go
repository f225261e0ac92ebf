package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/api/http/handlers"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	protected.Get("/status-options", cfg.Complaints.StatusOptions)

	staffOnly := auth.RequireRole(domain.RoleWardOfficer, domain.RoleAdministrator)
	protected.Get("/users/assignable", staffOnly, cfg.Users.Assignable)

	complaints := protected.Group("/complaints")
	complaints.Post("/", cfg.Complaints.CreateComplaint)
	complaints.Get("/", cfg.Complaints.ListComplaints)
	complaints.Get("/:id", cfg.Complaints.GetComplaint)
	complaints.Patch("/:id/status", cfg.Complaints.UpdateStatus)
	complaints.Post("/:id/reopen", auth.RequireRole(domain.RoleAdministrator), cfg.Complaints.Reopen)
	complaints.Get("/:id/sla", cfg.Complaints.SLA)
	complaints.Get("/:id/status-options", cfg.Complaints.ComplaintStatusOptions)
}
