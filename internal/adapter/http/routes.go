package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Guards are the middleware chains applied per route group.
type Guards struct {
	// Coordinator authenticates staff routes.
	Coordinator echo.MiddlewareFunc
	// Idempotency replays repeated mutating requests.
	Idempotency echo.MiddlewareFunc
	// PublicRate throttles token-keyed public writes.
	PublicRate echo.MiddlewareFunc
}

// Register mounts every route on e.
func Register(e *echo.Echo, h Handlers, g Guards) {
	e.GET("/health", h.System.Health)

	// public, token keyed
	e.GET("/appointments/slots", h.Appointments.ListSlots)
	e.GET("/public/notifications/:token", h.Public.Notification, g.PublicRate)
	e.POST("/appointments/book", h.Appointments.Book, g.PublicRate, g.Idempotency)
	e.POST("/public/uploads", h.Public.Upload, g.PublicRate, g.Idempotency)

	staff := func(method, path string, fn echo.HandlerFunc) {
		e.Add(method, path, fn, g.Coordinator, g.Idempotency)
	}

	staff(http.MethodPost, "/holds", h.Holds.Apply)
	staff(http.MethodPost, "/holds/clear", h.Holds.Clear)

	staff(http.MethodGet, "/notifications", h.Notifications.List)
	staff(http.MethodPost, "/notifications/detect", h.Notifications.Detect)
	staff(http.MethodGet, "/notifications/:id", h.Notifications.Get)
	staff(http.MethodPost, "/notifications/:id/resolve", h.Notifications.Resolve)
	staff(http.MethodPost, "/notifications/:id/dismiss", h.Notifications.Dismiss)
	staff(http.MethodPost, "/notifications/:id/send-email", h.Notifications.SendEmail)
	staff(http.MethodGet, "/notifications/:id/recipients", h.Notifications.Recipients)
	staff(http.MethodGet, "/notifications/:id/email-preview", h.Notifications.EmailPreview)

	staff(http.MethodPost, "/appointments/slots", h.Appointments.CreateSlot)

	staff(http.MethodPost, "/compliance/cases", h.Compliance.Open)
	staff(http.MethodGet, "/compliance/cases/:id", h.Compliance.Get)
	staff(http.MethodPatch, "/compliance/cases/:id", h.Compliance.Update)

	staff(http.MethodGet, "/subject-documents", h.Documents.Overview)
	staff(http.MethodPost, "/subject-documents", h.Documents.Upsert)

	staff(http.MethodPost, "/incidents", h.Incidents.Report)
	staff(http.MethodPost, "/incidents/:id/resolve", h.Incidents.Resolve)
}
