package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handlers bundles every route group the server mounts.
type Handlers struct {
	System        *SystemHandler
	Holds         *HoldHandler
	Notifications *NotificationHandler
	Appointments  *AppointmentHandler
	Compliance    *ComplianceHandler
	Documents     *DocumentHandler
	Incidents     *IncidentHandler
	Public        *PublicHandler
}

type SystemHandler struct{ log *zap.Logger }

func NewSystemHandler(log *zap.Logger) *SystemHandler { return &SystemHandler{log: log} }

func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// HTTPError renders errors that escape a handler, echo's own 404/405
// included, in the common error body.
func (h *SystemHandler) HTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: msg, Code: codeForStatus(he.Code)})
		return
	}
	_ = writeError(c, h.log, err)
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "auth"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "conflict"
	case status >= http.StatusInternalServerError:
		return "upstream"
	}
	return "validation"
}
