package notification

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uint64) (*Notification, error)
	GetByToken(ctx context.Context, token string) (*Notification, error)
	// ListPending returns pending notifications, optionally of one type,
	// soonest expiry first.
	ListPending(ctx context.Context, filter *Type) ([]Notification, error)
	// Transition moves a pending notification to a terminal status. It
	// reports false when no pending row matched.
	Transition(ctx context.Context, id uint64, to Status, at time.Time) (bool, error)
}

// Detector creates certificate-expiry notifications in bulk. The
// detection rules live in the database.
type Detector interface {
	CreateCertificateNotifications(ctx context.Context) error
}
