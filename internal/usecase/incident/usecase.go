package incident

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/incident"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/hold"
	"github.com/ali-abouelaish/FleetManager-sub004/pkg/id"
)

type Deps struct {
	UoW     uow.UnitOfWork
	Holds   *hold.Manager
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// Handler files tardiness and breakdown reports and closes them together
// with the notification each one raised.
type Handler struct {
	Deps
	now func() time.Time
}

func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

type ReportInput struct {
	Kind        string
	EntityType  string
	EntityID    uint64
	Description string
	ReportedBy  string
}

type ReportResult struct {
	Report       *domain.Report             `json:"report"`
	Notification *notification.Notification `json:"notification"`
}

type ResolveResult struct {
	Report       *domain.Report `json:"report"`
	Changed      bool           `json:"changed"`
	HoldReleased *hold.Result   `json:"hold_released,omitempty"`
}

func notificationType(k domain.Kind, t fleet.EntityType) (notification.Type, error) {
	switch k {
	case domain.KindTardiness:
		if t == fleet.EntityDriver || t == fleet.EntityAssistant {
			return notification.TypeDriverTardiness, nil
		}
	case domain.KindBreakdown:
		if t == fleet.EntityVehicle {
			return notification.TypeVehicleBreakdown, nil
		}
	default:
		return "", domain.ErrInvalidKind
	}
	return "", domain.ErrKindEntity
}

func entityExists(ctx context.Context, repo fleet.Repository, t fleet.EntityType, entityID uint64) error {
	var err error
	switch t {
	case fleet.EntityVehicle:
		_, err = repo.GetVehicle(ctx, entityID)
	case fleet.EntityDriver:
		_, err = repo.GetDriver(ctx, entityID)
	case fleet.EntityAssistant:
		_, err = repo.GetAssistant(ctx, entityID)
	default:
		err = fleet.ErrInvalidEntityType
	}
	return err
}

// Report stores the report and the notification it raises in one
// transaction.
func (h *Handler) Report(ctx context.Context, in ReportInput) (*ReportResult, error) {
	kind := domain.Kind(strings.TrimSpace(in.Kind))
	et := fleet.EntityType(strings.TrimSpace(in.EntityType))
	if !et.Valid() {
		return nil, fleet.ErrInvalidEntityType
	}
	if in.EntityID == 0 {
		return nil, hold.ErrInvalidEntityID
	}
	nt, err := notificationType(kind, et)
	if err != nil {
		return nil, err
	}

	res := &ReportResult{}
	err = h.UoW.WithinTx(ctx, func(r uow.Repos) error {
		if err := entityExists(ctx, r.Fleet, et, in.EntityID); err != nil {
			return err
		}
		n := &notification.Notification{
			NotificationType:      nt,
			EntityType:            et,
			EntityID:              in.EntityID,
			EmailToken:            id.NewToken(),
			Status:                notification.StatusPending,
			AdminResponseRequired: true,
		}
		if err := r.Notifications.Create(ctx, n); err != nil {
			return err
		}
		rep := &domain.Report{
			Kind:           kind,
			EntityType:     et,
			EntityID:       in.EntityID,
			Description:    strings.TrimSpace(in.Description),
			ReportedBy:     in.ReportedBy,
			NotificationID: n.ID,
			Status:         domain.StatusOpen,
		}
		if err := r.Incidents.Create(ctx, rep); err != nil {
			return err
		}
		res.Report, res.Notification = rep, n
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.Log.Info("incident reported",
		zap.Uint64("report_id", res.Report.ID),
		zap.Uint64("notification_id", res.Notification.ID),
		zap.String("kind", string(kind)),
		zap.String("entity_type", string(et)),
		zap.Uint64("entity_id", in.EntityID))
	return res, nil
}

// ResolveReport closes an open report and resolves its notification. A
// report that is already resolved is returned unchanged.
func (h *Handler) ResolveReport(ctx context.Context, reportID uint64) (*ResolveResult, error) {
	res := &ResolveResult{}
	at := h.now()
	err := h.UoW.WithinTx(ctx, func(r uow.Repos) error {
		changed, err := r.Incidents.MarkResolved(ctx, reportID, at)
		if err != nil {
			return err
		}
		rep, err := r.Incidents.GetByID(ctx, reportID)
		if err != nil {
			return err
		}
		res.Report, res.Changed = rep, changed
		if !changed {
			return nil
		}

		n, err := r.Notifications.GetByID(ctx, rep.NotificationID)
		if err != nil {
			return err
		}
		moved, err := r.Notifications.Transition(ctx, n.ID, notification.StatusResolved, at)
		if err != nil || !moved {
			return err
		}
		res.HoldReleased, err = h.Holds.ReleaseFor(ctx, r.Fleet, n.EntityType, n.EntityID, n.ID, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := "changed"
	if !res.Changed {
		result = "noop"
	}
	h.Metrics.Transition(string(notification.StatusResolved), result)
	h.Holds.Record(hold.ActionClear, res.HoldReleased)
	h.Log.Info("incident resolved",
		zap.Uint64("report_id", reportID),
		zap.Bool("changed", res.Changed))
	return res, nil
}
