package appointment

import "context"

type Repository interface {
	CreateSlot(ctx context.Context, s *Slot) error
	GetSlot(ctx context.Context, id uint64) (*Slot, error)
	// ListSlots returns every slot ordered by start, each with its booking
	// preloaded when one exists.
	ListSlots(ctx context.Context) ([]Slot, error)
	// CreateBooking fails with ErrSlotAlreadyBooked when the slot is taken.
	CreateBooking(ctx context.Context, b *Booking) error
}
