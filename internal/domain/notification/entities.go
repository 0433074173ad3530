package notification

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
)

type Type string

const (
	TypeCertificateExpiry Type = "certificate_expiry"
	TypeVehicleBreakdown  Type = "vehicle_breakdown"
	TypeDriverTardiness   Type = "driver_tardiness"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCertificateExpiry, TypeVehicleBreakdown, TypeDriverTardiness:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

func (s Status) Terminal() bool { return s == StatusResolved || s == StatusDismissed }

var (
	ErrNotFound     = apperr.New(apperr.KindNotFound, "notification not found")
	ErrInvalidToken = apperr.Validation("invalid or unknown token")
	ErrNotPending   = apperr.Validation("notification is no longer open")
	ErrNoRecipient  = apperr.New(apperr.KindNoRecipient, "no recipient email on file for this notification")
	ErrInvalidType  = apperr.Validation("type must be one of certificate_expiry, vehicle_breakdown, driver_tardiness")
)

// Notification is one compliance event for one entity. Rows are created by
// the expiry detector or by an incident report; status only moves forward
// from pending and email_token never changes once issued.
type Notification struct {
	ID                    uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NotificationType      Type             `gorm:"column:notification_type;size:32;not null;index" json:"notification_type"`
	EntityType            fleet.EntityType `gorm:"column:entity_type;size:16;not null;index:idx_notifications_entity" json:"entity_type"`
	EntityID              uint64           `gorm:"column:entity_id;not null;index:idx_notifications_entity" json:"entity_id"`
	CertificateType       string           `gorm:"column:certificate_type;size:64" json:"certificate_type"`
	CertificateName       string           `gorm:"column:certificate_name;size:255" json:"certificate_name"`
	ExpiryDate            *time.Time       `gorm:"column:expiry_date" json:"expiry_date"`
	DaysUntilExpiry       *int             `gorm:"column:days_until_expiry" json:"days_until_expiry"`
	RecipientEmployeeID   *uint64          `gorm:"column:recipient_employee_id;index" json:"recipient_employee_id"`
	RecipientEmail        *string          `gorm:"column:recipient_email;size:255" json:"recipient_email"`
	EmailToken            string           `gorm:"column:email_token;size:64;not null;uniqueIndex" json:"-"`
	Status                Status           `gorm:"column:status;size:16;not null;default:pending;index" json:"status"`
	AdminResponseRequired bool             `gorm:"column:admin_response_required;not null;default:false" json:"admin_response_required"`
	ResolvedAt            *time.Time       `gorm:"column:resolved_at" json:"resolved_at"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }
