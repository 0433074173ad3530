package compliance

import "context"

type Repository interface {
	// CreateIfAbsent inserts c unless a case already exists for its
	// notification. created is false when another row won.
	CreateIfAbsent(ctx context.Context, c *Case) (created bool, err error)
	GetByID(ctx context.Context, id uint64) (*Case, error)
	GetByNotificationID(ctx context.Context, notificationID uint64) (*Case, error)
	// UpdateColumns writes only the named columns of c, leaving fields set
	// concurrently by other writers alone.
	UpdateColumns(ctx context.Context, c *Case, columns ...string) error
}
