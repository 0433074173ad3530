package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/middleware"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/incident"
)

type IncidentHandler struct {
	uc  *incident.Handler
	log *zap.Logger
}

func NewIncidentHandler(uc *incident.Handler, log *zap.Logger) *IncidentHandler {
	return &IncidentHandler{uc: uc, log: log}
}

type reportReq struct {
	Kind        string `json:"kind"        validate:"required,oneof=tardiness breakdown"`
	EntityType  string `json:"entity_type" validate:"required,oneof=vehicle driver assistant"`
	EntityID    uint64 `json:"entity_id"   validate:"required,gt=0"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *IncidentHandler) Report(c echo.Context) error {
	var req reportReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	out, err := h.uc.Report(c.Request().Context(), incident.ReportInput{
		Kind:        req.Kind,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Description: req.Description,
		ReportedBy:  middleware.Actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *IncidentHandler) Resolve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.ResolveReport(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
