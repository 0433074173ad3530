package incident

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uint64) (*Report, error)
	// MarkResolved is guarded on status=open and reports whether it changed
	// the row.
	MarkResolved(ctx context.Context, id uint64, at time.Time) (bool, error)
}
