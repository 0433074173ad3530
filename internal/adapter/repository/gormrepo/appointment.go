package gormrepo

import (
	"context"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/appointment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppointmentRepository struct{ db *gorm.DB }

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) CreateSlot(ctx context.Context, s *appointment.Slot) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
	return apperr.Upstream(err, "create appointment slot")
}

func (r *AppointmentRepository) GetSlot(ctx context.Context, id uint64) (*appointment.Slot, error) {
	var out appointment.Slot
	if err := r.db.WithContext(ctx).Preload("Booking").First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, appointment.ErrSlotNotFound, "load appointment slot")
	}
	return &out, nil
}

func (r *AppointmentRepository) ListSlots(ctx context.Context) ([]appointment.Slot, error) {
	var out []appointment.Slot
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Order("slot_start ASC").
		Order("id ASC").
		Find(&out).Error
	return out, apperr.Upstream(err, "list appointment slots")
}

// CreateBooking relies on the unique index over appointment_slot_id; the
// losing insert of a race surfaces as ErrSlotAlreadyBooked.
func (r *AppointmentRepository) CreateBooking(ctx context.Context, b *appointment.Booking) error {
	err := r.db.WithContext(ctx).Create(b).Error
	if isDuplicate(err) {
		return appointment.ErrSlotAlreadyBooked
	}
	return apperr.Upstream(err, "create booking")
}
