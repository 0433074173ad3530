package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/document"
)

type DocumentHandler struct {
	uc  *document.Matcher
	log *zap.Logger
}

func NewDocumentHandler(uc *document.Matcher, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

type upsertDocumentReq struct {
	RequirementID     uint64  `json:"requirement_id"     validate:"required,gt=0"`
	SubjectType       string  `json:"subject_type"`
	SubjectID         uint64  `json:"subject_id"`
	Status            string  `json:"status"             validate:"omitempty,oneof=missing pending valid expired"`
	CertificateNumber *string `json:"certificate_number" validate:"omitempty,max=128"`
	IssueDate         *string `json:"issue_date"`
	ExpiryDate        *string `json:"expiry_date"`
	Notes             *string `json:"notes"`
}

// Overview lists requirements for ?subject_type with the fulfillment rows
// of ?subject_id.
func (h *DocumentHandler) Overview(c echo.Context) error {
	id, err := queryID(c, "subject_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Overview(c.Request().Context(), c.QueryParam("subject_type"), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Upsert takes the subject from the body, falling back to the query string.
func (h *DocumentHandler) Upsert(c echo.Context) error {
	var req upsertDocumentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if req.SubjectType == "" {
		req.SubjectType = c.QueryParam("subject_type")
	}
	if req.SubjectID == 0 {
		req.SubjectID, _ = strconv.ParseUint(c.QueryParam("subject_id"), 10, 64)
	}
	issue, err := parseDay("issue_date", req.IssueDate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	expiry, err := parseDay("expiry_date", req.ExpiryDate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.UpsertFulfillment(c.Request().Context(), document.UpsertInput{
		RequirementID:     req.RequirementID,
		SubjectType:       req.SubjectType,
		SubjectID:         req.SubjectID,
		Status:            req.Status,
		CertificateNumber: req.CertificateNumber,
		IssueDate:         issue,
		ExpiryDate:        expiry,
		Notes:             req.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
