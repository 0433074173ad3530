package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/appointment"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/compliance"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/pkg/id"
)

const SideChannelBookingSummary = "booking_summary"

type Deps struct {
	Appointments domain.Repository
	UoW          uow.UnitOfWork
	Sender       mail.Sender
	AdminEmails  []string
	Log          *zap.Logger
	Metrics      *metrics.Metrics
}

type Scheduler struct {
	Deps
	now func() time.Time
}

func NewScheduler(d Deps) *Scheduler {
	return &Scheduler{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

type CreateSlotInput struct {
	Start     time.Time
	End       time.Time
	Notes     *string
	CreatedBy string
}

type SlotView struct {
	domain.Slot
	Available bool `json:"available"`
	Started   bool `json:"started"`
}

type BookInput struct {
	Token  string
	SlotID uint64
	Name   string
	Email  string
}

func (u *Scheduler) CreateSlot(ctx context.Context, in CreateSlotInput) (*domain.Slot, error) {
	if in.Start.IsZero() || in.End.IsZero() || !in.Start.Before(in.End) {
		return nil, domain.ErrInvalidWindow
	}
	s := &domain.Slot{SlotStart: in.Start.UTC(), SlotEnd: in.End.UTC(), Notes: in.Notes, CreatedBy: in.CreatedBy}
	if err := u.Appointments.CreateSlot(ctx, s); err != nil {
		return nil, err
	}
	u.Log.Info("appointment slot created", zap.Uint64("slot_id", s.ID), zap.Time("slot_start", s.SlotStart))
	return s, nil
}

// ListSlots returns every slot with its booking, if any. Slots that already
// started stay in the list, flagged, so history is visible.
func (u *Scheduler) ListSlots(ctx context.Context, onlyAvailable bool) ([]SlotView, error) {
	slots, err := u.Appointments.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	now := u.now()
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		v := SlotView{Slot: s, Available: s.Available(), Started: !s.SlotStart.After(now)}
		if onlyAvailable && !v.Available {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Book claims a slot for the notification behind token. The unique index on
// the booking table decides races: the loser gets ErrSlotAlreadyBooked.
func (u *Scheduler) Book(ctx context.Context, in BookInput) (*domain.Booking, error) {
	if !id.IsToken(in.Token) {
		return nil, notification.ErrInvalidToken
	}
	if in.SlotID == 0 {
		return nil, domain.ErrSlotNotFound
	}

	var (
		b    *domain.Booking
		slot *domain.Slot
		n    *notification.Notification
	)
	now := u.now()
	err := u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		n, err = r.Notifications.GetByToken(ctx, in.Token)
		if err != nil {
			if errors.Is(err, notification.ErrNotFound) {
				return notification.ErrInvalidToken
			}
			return err
		}
		if n.Status.Terminal() {
			return notification.ErrNotPending
		}
		slot, err = r.Appointments.GetSlot(ctx, in.SlotID)
		if err != nil {
			return err
		}
		if !slot.SlotStart.After(now) {
			return domain.ErrSlotStarted
		}

		b = &domain.Booking{
			AppointmentSlotID: slot.ID,
			NotificationID:    n.ID,
			BookedByEmail:     strings.TrimSpace(in.Email),
			BookedByName:      strings.TrimSpace(in.Name),
			BookedAt:          now,
			Status:            domain.BookingStatusBooked,
		}
		if err := r.Appointments.CreateBooking(ctx, b); err != nil {
			return err
		}

		c, err := r.Cases.GetByNotificationID(ctx, n.ID)
		switch {
		case errors.Is(err, compliance.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		start := slot.SlotStart
		c.AppointmentDate = &start
		return r.Cases.UpdateColumns(ctx, c, compliance.ColAppointmentDate)
	})
	if err != nil {
		u.Metrics.Booking(bookingResult(err))
		u.Log.Info("booking rejected", zap.Uint64("slot_id", in.SlotID), zap.Error(err))
		return nil, err
	}

	u.Metrics.Booking("booked")
	u.Log.Info("slot booked",
		zap.Uint64("slot_id", slot.ID),
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("notification_id", n.ID))
	u.sendSummary(ctx, n, slot, b)
	return b, nil
}

func bookingResult(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindValidation, apperr.KindNotFound:
		return "rejected"
	}
	return "error"
}

// sendSummary tells the admins about a new booking. Its failure is logged
// and counted but never reaches the caller.
func (u *Scheduler) sendSummary(ctx context.Context, n *notification.Notification, s *domain.Slot, b *domain.Booking) {
	if u.Sender == nil || len(u.AdminEmails) == 0 {
		return
	}
	who := b.BookedByName
	if who == "" {
		who = "A recipient"
	}
	subject := fmt.Sprintf("Appointment booked: %s for %s #%d", n.CertificateName, n.EntityType, n.EntityID)
	text := fmt.Sprintf("%s booked the slot %s - %s for notification #%d (%s).\nContact: %s\n",
		who,
		s.SlotStart.Format("02 Jan 2006 15:04"),
		s.SlotEnd.Format("15:04"),
		n.ID, n.CertificateName, orDash(b.BookedByEmail))

	if err := u.Sender.Send(ctx, mail.Message{To: u.AdminEmails, Subject: subject, Text: text}); err != nil {
		u.Metrics.SideChannelFailure(SideChannelBookingSummary)
		u.Log.Warn("booking summary email failed", zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
