package gormrepo

import (
	"context"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

var _ uow.UnitOfWork = (*GormUoW)(nil)

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ReposFor(tx))
	})
}

// ReposFor binds every repository to db, which may be a transaction.
func ReposFor(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Fleet:         &FleetRepository{db: db},
		Notifications: &NotificationRepository{db: db},
		Appointments:  &AppointmentRepository{db: db},
		Cases:         &ComplianceRepository{db: db},
		Documents:     &DocumentRepository{db: db},
		Incidents:     &IncidentRepository{db: db},
	}
}
