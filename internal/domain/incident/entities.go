package incident

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
)

type Kind string

const (
	KindTardiness Kind = "tardiness"
	KindBreakdown Kind = "breakdown"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

var (
	ErrNotFound    = apperr.New(apperr.KindNotFound, "incident report not found")
	ErrInvalidKind = apperr.Validation("kind must be tardiness or breakdown")
	ErrKindEntity  = apperr.Validation("tardiness applies to driver or assistant, breakdown applies to vehicle")
)

// Report is a tardiness or breakdown report. NotificationID is the
// notification created together with the report.
type Report struct {
	ID             uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Kind           Kind             `gorm:"column:kind;size:16;not null" json:"kind"`
	EntityType     fleet.EntityType `gorm:"column:entity_type;size:16;not null" json:"entity_type"`
	EntityID       uint64           `gorm:"column:entity_id;not null;index" json:"entity_id"`
	Description    string           `gorm:"column:description;type:text" json:"description"`
	ReportedBy     string           `gorm:"column:reported_by;size:64" json:"reported_by"`
	NotificationID uint64           `gorm:"column:notification_id;not null;uniqueIndex" json:"notification_id"`
	Status         Status           `gorm:"column:status;size:16;not null;default:open" json:"status"`
	ResolvedAt     *time.Time       `gorm:"column:resolved_at" json:"resolved_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Report) TableName() string { return "incident_reports" }
