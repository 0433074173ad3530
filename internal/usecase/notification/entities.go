package notification

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/hold"
)

type Recipient struct {
	EmployeeID *uint64 `json:"employee_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
}

const (
	RoleAssignedEmployee = "assigned_employee"
	RoleDriver           = "driver"
	RoleAssistant        = "assistant"
	RoleSubject          = "subject"
	RoleOnFile           = "on_file"
)

type EmailContent struct {
	Subject     string `json:"subject"`
	StatusLabel string `json:"status_label"`
	Text        string `json:"text"`
	HTML        string `json:"html"`
	UploadURL   string `json:"upload_url"`
	BookingURL  string `json:"booking_url"`
}

type TransitionResult struct {
	NotificationID uint64        `json:"notification_id"`
	Status         domain.Status `json:"status"`
	// Changed is false when the notification was already terminal.
	Changed      bool         `json:"changed"`
	HoldReleased *hold.Result `json:"hold_released,omitempty"`
}

type SendResult struct {
	NotificationID uint64       `json:"notification_id"`
	Recipients     []Recipient  `json:"recipients"`
	Subject        string       `json:"subject"`
	Hold           *hold.Result `json:"hold,omitempty"`
}

// PublicView is what a token holder may see about their notification.
type PublicView struct {
	NotificationType domain.Type      `json:"notification_type"`
	CertificateType  string           `json:"certificate_type"`
	CertificateName  string           `json:"certificate_name"`
	ExpiryDate       *time.Time       `json:"expiry_date"`
	DaysUntilExpiry  *int             `json:"days_until_expiry"`
	EntityType       fleet.EntityType `json:"entity_type"`
	Status           domain.Status    `json:"status"`
}
