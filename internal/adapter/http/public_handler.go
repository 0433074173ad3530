package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/document"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/notification"
)

// PublicHandler serves the token-keyed recipient pages.
type PublicHandler struct {
	notifications *notification.Registry
	documents     *document.Matcher
	log           *zap.Logger
}

func NewPublicHandler(n *notification.Registry, d *document.Matcher, log *zap.Logger) *PublicHandler {
	return &PublicHandler{notifications: n, documents: d, log: log}
}

type uploadReq struct {
	Token             string  `json:"token"              validate:"required,token"`
	FileName          string  `json:"file_name"          validate:"required,max=255"`
	FilePath          string  `json:"file_path"          validate:"required"`
	MimeType          string  `json:"mime_type"          validate:"max=128"`
	CertificateNumber *string `json:"certificate_number" validate:"omitempty,max=128"`
	ExpiryDate        *string `json:"expiry_date"`
}

func (h *PublicHandler) Notification(c echo.Context) error {
	out, err := h.notifications.PublicContext(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PublicHandler) Upload(c echo.Context) error {
	var req uploadReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	expiry, err := parseDay("expiry_date", req.ExpiryDate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.documents.RecordUpload(c.Request().Context(), document.UploadInput{
		Token:             req.Token,
		FileName:          req.FileName,
		FilePath:          req.FilePath,
		MimeType:          req.MimeType,
		CertificateNumber: req.CertificateNumber,
		ExpiryDate:        expiry,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, out)
}
