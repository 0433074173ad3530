package compliance

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
)

type ApplicationStatus string

const (
	StatusNotApplied ApplicationStatus = "not_applied"
	StatusApplied    ApplicationStatus = "applied"
)

func (s ApplicationStatus) Valid() bool { return s == StatusNotApplied || s == StatusApplied }

var (
	ErrNotFound         = apperr.New(apperr.KindNotFound, "compliance case not found")
	ErrInvalidAppStatus = apperr.Validation("application_status must be not_applied or applied")
	ErrEmptyCaseUpdate  = apperr.Validation("no fields to update")
)

// Columns written by partial updates.
const (
	ColApplicationStatus = "application_status"
	ColDateApplied       = "date_applied"
	ColAppointmentDate   = "appointment_date"
)

// Case tracks a coordinator's follow-up on one notification.
type Case struct {
	ID                uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NotificationID    uint64            `gorm:"column:notification_id;not null;uniqueIndex" json:"notification_id"`
	ApplicationStatus ApplicationStatus `gorm:"column:application_status;size:16;not null;default:not_applied" json:"application_status"`
	DateApplied       *time.Time        `gorm:"column:date_applied" json:"date_applied"`
	AppointmentDate   *time.Time        `gorm:"column:appointment_date" json:"appointment_date"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Case) TableName() string { return "compliance_cases" }
