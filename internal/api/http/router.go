package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/notification-center/internal/api/http/handlers"
	"github.com/spec-kit/notification-center/internal/auth"
	"github.com/spec-kit/notification-center/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Notifications  *handlers.NotificationsHandler
	Preferences    *handlers.PreferencesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	inbox := api.Group("/notifications", auth.RequireAnyRole())
	inbox.Get("/", cfg.Notifications.List)
	inbox.Get("/unread-count", cfg.Notifications.UnreadCount)
	inbox.Post("/read-all", cfg.Notifications.MarkAllRead)
	inbox.Post("/:id/read", cfg.Notifications.MarkRead)
	inbox.Delete("/:id", cfg.Notifications.Delete)

	// delivery trail is operator-facing
	inbox.Get("/:id/deliveries", auth.RequireStaffRole(), cfg.Notifications.DeliveryLogs)

	prefs := api.Group("/preferences", auth.RequireAnyRole())
	prefs.Get("/", cfg.Preferences.Get)
	prefs.Patch("/", cfg.Preferences.Update)
	prefs.Put("/types", cfg.Preferences.UpdateTypeSetting)

	send := api.Group("/send", auth.RequireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleTeamLead))
	send.Post("/", cfg.Notifications.Send)
	send.Post("/bulk", cfg.Notifications.SendBulk)
	send.Post("/role", cfg.Notifications.SendToRole)
}
