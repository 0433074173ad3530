package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/middleware"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/appointment"
)

type AppointmentHandler struct {
	uc  *appointment.Scheduler
	log *zap.Logger
}

func NewAppointmentHandler(uc *appointment.Scheduler, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{uc: uc, log: log}
}

type createSlotReq struct {
	SlotStart time.Time `json:"slot_start" validate:"required"`
	SlotEnd   time.Time `json:"slot_end"   validate:"required"`
	Notes     *string   `json:"notes"`
}

type bookReq struct {
	Token  string `json:"token"  validate:"required,token"`
	SlotID uint64 `json:"slotId" validate:"required,gt=0"`
	Name   string `json:"name"   validate:"max=255"`
	Email  string `json:"email"  validate:"omitempty,email,max=255"`
}

func (h *AppointmentHandler) ListSlots(c echo.Context) error {
	out, err := h.uc.ListSlots(c.Request().Context(), c.QueryParam("available") == "true")
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AppointmentHandler) CreateSlot(c echo.Context) error {
	var req createSlotReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	slot, err := h.uc.CreateSlot(c.Request().Context(), appointment.CreateSlotInput{
		Start:     req.SlotStart,
		End:       req.SlotEnd,
		Notes:     req.Notes,
		CreatedBy: middleware.Actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, slot)
}

// Book claims a slot for the token holder. A taken slot answers 409.
func (h *AppointmentHandler) Book(c echo.Context) error {
	var req bookReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	b, err := h.uc.Book(c.Request().Context(), appointment.BookInput{
		Token:  req.Token,
		SlotID: req.SlotID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}
