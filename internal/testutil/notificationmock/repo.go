package notificationmock

import (
	"context"
	"errors"
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
)

var _ notification.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("notificationmock: method not implemented")

// Repo is a function-backed notification.Repository.
type Repo struct {
	CreateFn      func(ctx context.Context, n *notification.Notification) error
	GetByIDFn     func(ctx context.Context, id uint64) (*notification.Notification, error)
	GetByTokenFn  func(ctx context.Context, token string) (*notification.Notification, error)
	ListPendingFn func(ctx context.Context, filter *notification.Type) ([]notification.Notification, error)
	TransitionFn  func(ctx context.Context, id uint64, to notification.Status, at time.Time) (bool, error)
}

func (m *Repo) Create(ctx context.Context, n *notification.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return errUnimplemented
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*notification.Notification, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByToken(ctx context.Context, token string) (*notification.Notification, error) {
	if m.GetByTokenFn != nil {
		return m.GetByTokenFn(ctx, token)
	}
	return nil, errUnimplemented
}

func (m *Repo) ListPending(ctx context.Context, filter *notification.Type) ([]notification.Notification, error) {
	if m.ListPendingFn != nil {
		return m.ListPendingFn(ctx, filter)
	}
	return nil, errUnimplemented
}

func (m *Repo) Transition(ctx context.Context, id uint64, to notification.Status, at time.Time) (bool, error) {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, id, to, at)
	}
	return false, errUnimplemented
}
