package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/middleware"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/notification"
)

type NotificationHandler struct {
	uc  *notification.Registry
	log *zap.Logger
}

func NewNotificationHandler(uc *notification.Registry, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{uc: uc, log: log}
}

type sendEmailReq struct {
	AutoHold *bool `json:"auto_hold"`
}

// List returns pending notifications, optionally filtered by ?type=.
func (h *NotificationHandler) List(c echo.Context) error {
	out, err := h.uc.ListPending(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	n, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) Resolve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.uc.Resolve(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *NotificationHandler) Dismiss(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.uc.Dismiss(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// SendEmail sends the compliance email; auto_hold defaults to true.
func (h *NotificationHandler) SendEmail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req sendEmailReq
	if c.Request().ContentLength != 0 {
		if ok, err := bindValid(c, &req); !ok {
			return err
		}
	}
	autoHold := req.AutoHold == nil || *req.AutoHold
	res, err := h.uc.SendComplianceEmail(c.Request().Context(), id, autoHold, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *NotificationHandler) Recipients(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.ResolveRecipients(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) EmailPreview(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.BuildEmailContent(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Detect runs the expiry detector on demand.
func (h *NotificationHandler) Detect(c echo.Context) error {
	if err := h.uc.RunDetection(c.Request().Context()); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
