package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/http/handlers"
	"github.com/spec-kit/dedup-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Messages       *handlers.MessagesHandler
	Groups         *handlers.GroupsHandler
	Content        *handlers.ContentHandler
	Notifications  *handlers.NotificationsHandler
	DeadLetters    *handlers.DeadLettersHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Ingestion is open to channel
// connectors; everything else is operator-only.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/operators/login", cfg.Auth.Login)

	api := app.Group("/api/v1")
	api.Post("/messages", cfg.Messages.Ingest)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/tickets/:id", cfg.Messages.Get)
	protected.Post("/tickets/:id/content", cfg.Content.CreateDraft)

	protected.Get("/groups", cfg.Groups.List)
	protected.Post("/groups", cfg.Groups.Create)
	protected.Get("/groups/:id", cfg.Groups.Get)
	protected.Get("/groups/:id/tickets", cfg.Groups.Members)
	protected.Post("/groups/:id/tickets", cfg.Groups.AddTickets)
	protected.Delete("/groups/:id/tickets/:ticketId", cfg.Groups.RemoveTicket)
	protected.Post("/groups/:id/resolve", cfg.Groups.Resolve)

	protected.Get("/content/:id", cfg.Content.Get)
	protected.Post("/content/:id/approve", cfg.Content.Approve)
	protected.Post("/content/:id/reject", cfg.Content.Reject)

	protected.Get("/notifications/held", cfg.Notifications.ListHeld)
	protected.Post("/notifications/held/approve", cfg.Notifications.ApproveAll)
	protected.Post("/notifications/held/reject", cfg.Notifications.RejectAll)
	protected.Post("/notifications/:id/approve", cfg.Notifications.Approve)
	protected.Post("/notifications/:id/reject", cfg.Notifications.Reject)

	protected.Get("/dead-letters", cfg.DeadLetters.List)
	protected.Get("/dead-letters/:id", cfg.DeadLetters.Get)
	protected.Post("/dead-letters/:id/resolve", cfg.DeadLetters.Resolve)
	protected.Post("/dead-letters/:id/retry", cfg.DeadLetters.Retry)

	protected.Get("/admin/force-fail/:jobType", cfg.Admin.ForceFailStatus)
	protected.Post("/admin/force-fail/:jobType", cfg.Admin.ArmForceFail)
	protected.Delete("/admin/force-fail/:jobType", cfg.Admin.DisarmForceFail)
	protected.Get("/admin/metrics", cfg.Admin.Metrics)
}
