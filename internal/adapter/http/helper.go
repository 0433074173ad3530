package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
)

const dateLayout = "2006-01-02"

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:    http.StatusBadRequest,
	apperr.KindAuth:          http.StatusUnauthorized,
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindConflict:      http.StatusConflict,
	apperr.KindNoRecipient:   http.StatusUnprocessableEntity,
	apperr.KindUpstream:      http.StatusInternalServerError,
	apperr.KindConfiguration: http.StatusInternalServerError,
}

// writeError renders err as {"error","code"} with the status for its kind.
// Upstream messages pass through for operator diagnosis.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("code", string(kind)),
			zap.Error(err))
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: string(kind)})
}

// bindValid binds the body into req and runs the validator. Both failures
// answer 400; the caller returns the error as is when ok is false.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(apperr.KindValidation)})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    string(apperr.KindValidation),
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Newf(apperr.KindValidation, "%s must be a positive integer", name)
	}
	return id, nil
}

func queryID(c echo.Context, name string) (uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, apperr.Newf(apperr.KindValidation, "%s is required", name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Newf(apperr.KindValidation, "%s must be a positive integer", name)
	}
	return id, nil
}

// parseDay reads an optional YYYY-MM-DD value as midnight UTC.
func parseDay(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "%s must be YYYY-MM-DD", field)
	}
	return &t, nil
}
