package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/compliance"
)

type ComplianceHandler struct {
	uc  *compliance.Tracker
	log *zap.Logger
}

func NewComplianceHandler(uc *compliance.Tracker, log *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{uc: uc, log: log}
}

type openCaseReq struct {
	NotificationID uint64 `json:"notification_id" validate:"required,gt=0"`
}

type updateCaseReq struct {
	ApplicationStatus *string `json:"application_status" validate:"omitempty,oneof=not_applied applied"`
	DateApplied       *string `json:"date_applied"`
	AppointmentDate   *string `json:"appointment_date"`
}

// Open answers {case_id, existing}; repeated calls return the same case.
func (h *ComplianceHandler) Open(c echo.Context) error {
	var req openCaseReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.OpenOrGet(c.Request().Context(), req.NotificationID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"case_id": res.CaseID, "existing": res.Existing})
}

func (h *ComplianceHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ComplianceHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req updateCaseReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	out, err := h.uc.Update(c.Request().Context(), id, compliance.UpdateInput{
		ApplicationStatus: req.ApplicationStatus,
		DateApplied:       req.DateApplied,
		AppointmentDate:   req.AppointmentDate,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
