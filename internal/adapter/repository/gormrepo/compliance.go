package gormrepo

import (
	"context"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/compliance"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ComplianceRepository struct{ db *gorm.DB }

func NewComplianceRepository(db *gorm.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

var _ compliance.Repository = (*ComplianceRepository)(nil)

// CreateIfAbsent is an insert-or-ignore on notification_id, so concurrent
// openers converge on one row without locking.
func (r *ComplianceRepository) CreateIfAbsent(ctx context.Context, c *compliance.Case) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "notification_id"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return false, nil
		}
		return false, apperr.Upstream(res.Error, "create compliance case")
	}
	return res.RowsAffected == 1, nil
}

func (r *ComplianceRepository) GetByID(ctx context.Context, id uint64) (*compliance.Case, error) {
	var out compliance.Case
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, compliance.ErrNotFound, "load compliance case")
	}
	return &out, nil
}

func (r *ComplianceRepository) GetByNotificationID(ctx context.Context, notificationID uint64) (*compliance.Case, error) {
	var out compliance.Case
	if err := r.db.WithContext(ctx).Where("notification_id = ?", notificationID).First(&out).Error; err != nil {
		return nil, notFoundOr(err, compliance.ErrNotFound, "load compliance case by notification")
	}
	return &out, nil
}

func (r *ComplianceRepository) UpdateColumns(ctx context.Context, c *compliance.Case, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(c).Select(columns).Updates(c).Error
	return apperr.Upstream(err, "update compliance case")
}
