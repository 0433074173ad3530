package hold

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
)

const DefaultReason = "Auto hold after compliance email sent - awaiting documents/appointment"

const (
	ActionApply = "apply"
	ActionClear = "clear"
)

var ErrInvalidEntityID = apperr.Validation("entity_id is required")

type Manager struct {
	uow     uow.UnitOfWork
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewManager(u uow.UnitOfWork, log *zap.Logger, m *metrics.Metrics) *Manager {
	return &Manager{uow: u, log: log, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

type ApplyInput struct {
	EntityType     fleet.EntityType
	EntityID       uint64
	NotificationID *uint64
	Reason         string
	SetBy          string
}

type Result struct {
	fleet.CascadeSet
	OnHold  bool  `json:"on_hold"`
	Changed int64 `json:"records_changed"`
}

func validate(t fleet.EntityType, id uint64) error {
	if !t.Valid() {
		return fleet.ErrInvalidEntityType
	}
	if id == 0 {
		return ErrInvalidEntityID
	}
	return nil
}

// ApplyHold puts the entity and its cascade set on hold in one transaction.
func (m *Manager) ApplyHold(ctx context.Context, in ApplyInput) (*Result, error) {
	if err := validate(in.EntityType, in.EntityID); err != nil {
		return nil, err
	}
	var res *Result
	err := m.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		res, err = m.ApplyWith(ctx, r.Fleet, in, m.now())
		return err
	})
	if err != nil {
		m.log.Error("apply hold failed",
			zap.String("entity_type", string(in.EntityType)),
			zap.Uint64("entity_id", in.EntityID),
			zap.Error(err))
		return nil, err
	}
	m.Record(ActionApply, res)
	return res, nil
}

// ClearHold releases the entity and its cascade set. Clearing an entity that
// is not on hold succeeds and changes nothing.
func (m *Manager) ClearHold(ctx context.Context, t fleet.EntityType, id uint64) (*Result, error) {
	if err := validate(t, id); err != nil {
		return nil, err
	}
	var res *Result
	err := m.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		res, err = m.ClearWith(ctx, r.Fleet, t, id, m.now())
		return err
	})
	if err != nil {
		m.log.Error("clear hold failed",
			zap.String("entity_type", string(t)),
			zap.Uint64("entity_id", id),
			zap.Error(err))
		return nil, err
	}
	m.Record(ActionClear, res)
	return res, nil
}

// ApplyWith runs the apply cascade on repo, which must be bound to the
// caller's transaction.
func (m *Manager) ApplyWith(ctx context.Context, repo fleet.Repository, in ApplyInput, at time.Time) (*Result, error) {
	if err := validate(in.EntityType, in.EntityID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = DefaultReason
	}
	change := fleet.HoldChange{OnHold: true, Reason: &reason, NotificationID: in.NotificationID, At: at}
	if in.SetBy != "" {
		setBy := in.SetBy
		change.SetBy = &setBy
	}
	return m.cascade(ctx, repo, in.EntityType, in.EntityID, change)
}

func (m *Manager) ClearWith(ctx context.Context, repo fleet.Repository, t fleet.EntityType, id uint64, at time.Time) (*Result, error) {
	if err := validate(t, id); err != nil {
		return nil, err
	}
	return m.cascade(ctx, repo, t, id, fleet.HoldChange{OnHold: false, At: at})
}

// ReleaseFor clears the entity's hold only when it was placed for
// notificationID. It returns nil when nothing was held for that
// notification, including when the entity no longer exists.
func (m *Manager) ReleaseFor(ctx context.Context, repo fleet.Repository, t fleet.EntityType, id, notificationID uint64, at time.Time) (*Result, error) {
	hs, err := repo.HoldOf(ctx, t, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) || errors.Is(err, fleet.ErrInvalidEntityType) {
			return nil, nil
		}
		return nil, err
	}
	if !hs.OnHold || hs.OnHoldNotificationID == nil || *hs.OnHoldNotificationID != notificationID {
		return nil, nil
	}
	return m.ClearWith(ctx, repo, t, id, at)
}

func (m *Manager) cascade(ctx context.Context, repo fleet.Repository, t fleet.EntityType, id uint64, change fleet.HoldChange) (*Result, error) {
	if err := repo.LockEntity(ctx, t, id); err != nil {
		return nil, err
	}
	set, err := ResolveCascade(ctx, repo, t, id)
	if err != nil {
		return nil, err
	}
	res := &Result{CascadeSet: set, OnHold: change.OnHold}
	for _, k := range set.ByKind() {
		n, err := repo.SetHold(ctx, k.Kind, k.IDs, change)
		if err != nil {
			return nil, err
		}
		res.Changed += n
	}
	return res, nil
}

// Record counts a committed cascade.
func (m *Manager) Record(action string, res *Result) {
	if res == nil {
		return
	}
	m.metrics.HoldCascade(action, string(res.Root), res.Changed)
	m.log.Info("hold cascade committed",
		zap.String("action", action),
		zap.String("entity_type", string(res.Root)),
		zap.Uint64("entity_id", res.RootID),
		zap.Int("cascade_size", res.Size()),
		zap.Int64("records_changed", res.Changed))
}

// ResolveCascade lists the records that share the entity's hold state. A
// vehicle carries its routes. A driver or assistant carries their routes and
// the vehicles those routes use.
func ResolveCascade(ctx context.Context, repo fleet.Repository, t fleet.EntityType, id uint64) (fleet.CascadeSet, error) {
	set := fleet.CascadeSet{Root: t, RootID: id}

	var (
		routes []fleet.Route
		err    error
	)
	switch t {
	case fleet.EntityVehicle:
		set.Vehicles = []uint64{id}
		routes, err = repo.RoutesByVehicle(ctx, id)
	case fleet.EntityDriver:
		set.Drivers = []uint64{id}
		routes, err = repo.RoutesByDriver(ctx, id)
	case fleet.EntityAssistant:
		set.Assistants = []uint64{id}
		routes, err = repo.RoutesByAssistant(ctx, id)
	default:
		return set, fleet.ErrInvalidEntityType
	}
	if err != nil {
		return set, err
	}

	seen := map[uint64]bool{}
	for _, v := range set.Vehicles {
		seen[v] = true
	}
	for _, r := range routes {
		set.Routes = append(set.Routes, r.ID)
		if t == fleet.EntityVehicle || r.VehicleID == nil || seen[*r.VehicleID] {
			continue
		}
		seen[*r.VehicleID] = true
		set.Vehicles = append(set.Vehicles, *r.VehicleID)
	}
	return set, nil
}
