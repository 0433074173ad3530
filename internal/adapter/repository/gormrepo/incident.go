package gormrepo

import (
	"context"
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/incident"

	"gorm.io/gorm"
)

type IncidentRepository struct{ db *gorm.DB }

func NewIncidentRepository(db *gorm.DB) *IncidentRepository { return &IncidentRepository{db: db} }

var _ incident.Repository = (*IncidentRepository)(nil)

func (r *IncidentRepository) Create(ctx context.Context, rep *incident.Report) error {
	return apperr.Upstream(r.db.WithContext(ctx).Create(rep).Error, "create incident report")
}

func (r *IncidentRepository) GetByID(ctx context.Context, id uint64) (*incident.Report, error) {
	var out incident.Report
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, incident.ErrNotFound, "load incident report")
	}
	return &out, nil
}

func (r *IncidentRepository) MarkResolved(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&incident.Report{}).
		Where("id = ? AND status = ?", id, incident.StatusOpen).
		Updates(map[string]any{"status": incident.StatusResolved, "resolved_at": at})
	if res.Error != nil {
		return false, apperr.Upstream(res.Error, "resolve incident report")
	}
	return res.RowsAffected > 0, nil
}
