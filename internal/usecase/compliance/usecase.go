package compliance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/compliance"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
)

const DateLayout = "2006-01-02"

type Tracker struct {
	cases domain.Repository
	notes notification.Repository
	log   *zap.Logger
}

func NewTracker(cases domain.Repository, notes notification.Repository, log *zap.Logger) *Tracker {
	return &Tracker{cases: cases, notes: notes, log: log}
}

type OpenResult struct {
	CaseID   uint64       `json:"case_id"`
	Existing bool         `json:"existing"`
	Case     *domain.Case `json:"case"`
}

// UpdateInput leaves nil fields untouched. An empty date string clears
// the date.
type UpdateInput struct {
	ApplicationStatus *string
	DateApplied       *string
	AppointmentDate   *string
}

// OpenOrGet returns the case for the notification, creating it on first
// use. Concurrent callers converge on one row.
func (u *Tracker) OpenOrGet(ctx context.Context, notificationID uint64) (*OpenResult, error) {
	if _, err := u.notes.GetByID(ctx, notificationID); err != nil {
		return nil, err
	}
	c := &domain.Case{NotificationID: notificationID, ApplicationStatus: domain.StatusNotApplied}
	created, err := u.cases.CreateIfAbsent(ctx, c)
	if err != nil {
		return nil, err
	}
	if !created {
		if c, err = u.cases.GetByNotificationID(ctx, notificationID); err != nil {
			return nil, err
		}
	} else {
		u.log.Info("compliance case opened", zap.Uint64("case_id", c.ID), zap.Uint64("notification_id", notificationID))
	}
	return &OpenResult{CaseID: c.ID, Existing: !created, Case: c}, nil
}

func (u *Tracker) Get(ctx context.Context, caseID uint64) (*domain.Case, error) {
	return u.cases.GetByID(ctx, caseID)
}

// Update applies a free-form change. application_status may move either
// way between its two values.
func (u *Tracker) Update(ctx context.Context, caseID uint64, in UpdateInput) (*domain.Case, error) {
	if in.ApplicationStatus == nil && in.DateApplied == nil && in.AppointmentDate == nil {
		return nil, domain.ErrEmptyCaseUpdate
	}
	var status domain.ApplicationStatus
	if in.ApplicationStatus != nil {
		status = domain.ApplicationStatus(strings.TrimSpace(*in.ApplicationStatus))
		if !status.Valid() {
			return nil, domain.ErrInvalidAppStatus
		}
	}
	applied, err := parseDate("date_applied", in.DateApplied)
	if err != nil {
		return nil, err
	}
	appointment, err := parseDate("appointment_date", in.AppointmentDate)
	if err != nil {
		return nil, err
	}

	if _, err := u.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	c := &domain.Case{ID: caseID}
	var cols []string
	if in.ApplicationStatus != nil {
		c.ApplicationStatus = status
		cols = append(cols, domain.ColApplicationStatus)
	}
	if in.DateApplied != nil {
		c.DateApplied = applied
		cols = append(cols, domain.ColDateApplied)
	}
	if in.AppointmentDate != nil {
		c.AppointmentDate = appointment
		cols = append(cols, domain.ColAppointmentDate)
	}
	if err := u.cases.UpdateColumns(ctx, c, cols...); err != nil {
		return nil, err
	}
	return u.cases.GetByID(ctx, caseID)
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "%s must be YYYY-MM-DD", field)
	}
	return &t, nil
}
