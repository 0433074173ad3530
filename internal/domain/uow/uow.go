package uow

import (
	"context"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/appointment"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/compliance"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/document"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/incident"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
)

// Repos is every repository bound to one transaction.
type Repos struct {
	Fleet         fleet.Repository
	Notifications notification.Repository
	Appointments  appointment.Repository
	Cases         compliance.Repository
	Documents     document.Repository
	Incidents     incident.Repository
}

type UnitOfWork interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
