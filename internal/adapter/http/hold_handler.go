package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/middleware"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/hold"
)

type HoldHandler struct {
	uc  *hold.Manager
	log *zap.Logger
}

func NewHoldHandler(uc *hold.Manager, log *zap.Logger) *HoldHandler {
	return &HoldHandler{uc: uc, log: log}
}

type applyHoldReq struct {
	EntityType     string  `json:"entityType"     validate:"required,oneof=vehicle driver assistant"`
	EntityID       uint64  `json:"entityId"       validate:"required,gt=0"`
	NotificationID *uint64 `json:"notificationId" validate:"omitempty,gt=0"`
	Reason         string  `json:"reason"         validate:"max=500"`
}

type clearHoldReq struct {
	EntityType string `json:"entityType" validate:"required,oneof=vehicle driver assistant"`
	EntityID   uint64 `json:"entityId"   validate:"required,gt=0"`
}

func (h *HoldHandler) Apply(c echo.Context) error {
	var req applyHoldReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.ApplyHold(c.Request().Context(), hold.ApplyInput{
		EntityType:     fleet.EntityType(req.EntityType),
		EntityID:       req.EntityID,
		NotificationID: req.NotificationID,
		Reason:         req.Reason,
		SetBy:          middleware.Actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *HoldHandler) Clear(c echo.Context) error {
	var req clearHoldReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.ClearHold(c.Request().Context(), fleet.EntityType(req.EntityType), req.EntityID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}
