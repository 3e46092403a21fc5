package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Trash          *handlers.TrashHandler
	Attachments    *handlers.AttachmentsHandler
	Assignments    *handlers.AssignmentsHandler
	Calendar       *handlers.CalendarHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Every route except the probes requires a
// bearer token; per-record rules are enforced by the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireActor())
	api.Get("/metrics", auth.RequireCapability(auth.CapAdministerTickets), cfg.Health.Metrics)

	tickets := api.Group("/tickets")
	tickets.Post("/", auth.RequireCapability(auth.CapCreatorScope, auth.CapAdministerTickets), cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Trash.DeleteTicket)
	tickets.Post("/:id/restore", cfg.Trash.RestoreTicket)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Put("/:id/due-date", cfg.Tickets.SetDueDate)
	tickets.Put("/:id/resolution", cfg.Tickets.SetResolution)
	tickets.Post("/:id/rating", cfg.Tickets.Rate)
	tickets.Get("/:id/attachments", cfg.Attachments.List)
	tickets.Post("/:id/attachments", cfg.Attachments.Register)

	assignees := tickets.Group("/:id/assignees")
	assignees.Get("/", cfg.Assignments.List)
	assignees.Post("/", auth.RequireCapability(auth.CapAdministerTickets), cfg.Assignments.Assign)
	assignees.Delete("/:userId", auth.RequireCapability(auth.CapAdministerTickets), cfg.Assignments.Unassign)

	api.Get("/trash", cfg.Trash.ListDeleted)
	api.Delete("/attachments/:id", cfg.Trash.DeleteAttachment)
	api.Post("/attachments/:id/restore", cfg.Trash.RestoreAttachment)

	calendar := api.Group("/calendar")
	calendar.Get("/holidays", cfg.Calendar.ListHolidays)
	calendar.Get("/elapsed", cfg.Calendar.Elapsed)
	manage := calendar.Group("", auth.RequireCapability(auth.CapManageCalendar))
	manage.Post("/holidays", cfg.Calendar.AddHoliday)
	manage.Put("/holidays", cfg.Calendar.ReplaceHolidays)
	manage.Delete("/holidays/:date", cfg.Calendar.RemoveHoliday)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/summary", cfg.Dashboard.Summary)
	dashboard.Get("/breakdown", cfg.Dashboard.Breakdown)
}
