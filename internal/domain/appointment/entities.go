package appointment

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
)

type BookingStatus string

const BookingStatusBooked BookingStatus = "booked"

var (
	ErrSlotNotFound      = apperr.New(apperr.KindNotFound, "appointment slot not found")
	ErrSlotAlreadyBooked = apperr.New(apperr.KindConflict, "Slot already booked")
	ErrInvalidWindow     = apperr.Validation("slot_start must be before slot_end")
	ErrSlotStarted       = apperr.Validation("slot has already started")
)

// Slot is a bookable window. Slots are never deleted.
type Slot struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SlotStart time.Time `gorm:"column:slot_start;not null;index" json:"slot_start"`
	SlotEnd   time.Time `gorm:"column:slot_end;not null" json:"slot_end"`
	Notes     *string   `gorm:"column:notes;type:text" json:"notes"`
	CreatedBy string    `gorm:"column:created_by;size:64" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Booking *Booking `gorm:"foreignKey:AppointmentSlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"booking"`
}

func (Slot) TableName() string { return "appointment_slots" }

func (s Slot) Available() bool { return s.Booking == nil }

// Booking is the single claim on a slot. The unique index on
// appointment_slot_id is what guarantees one booking per slot.
type Booking struct {
	ID                uint64        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AppointmentSlotID uint64        `gorm:"column:appointment_slot_id;not null;uniqueIndex" json:"appointment_slot_id"`
	NotificationID    uint64        `gorm:"column:notification_id;not null;index" json:"notification_id"`
	BookedByEmail     string        `gorm:"column:booked_by_email;size:255" json:"booked_by_email"`
	BookedByName      string        `gorm:"column:booked_by_name;size:255" json:"booked_by_name"`
	BookedAt          time.Time     `gorm:"column:booked_at;not null" json:"booked_at"`
	Status            BookingStatus `gorm:"column:status;size:16;not null;default:booked" json:"status"`
}

func (Booking) TableName() string { return "appointment_bookings" }
