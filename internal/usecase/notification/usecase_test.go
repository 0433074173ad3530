package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/repository/gormrepo"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/mailmock"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/notificationmock"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/sqlitedb"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/uowmock"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/hold"
)

var fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type detectorFunc func(ctx context.Context) error

func (f detectorFunc) CreateCertificateNotifications(ctx context.Context) error { return f(ctx) }

func newRegistry(db *gorm.DB, sender *mailmock.Sender) *Registry {
	u := gormrepo.NewGormUoW(db)
	m := metrics.NewNop()
	r := NewRegistry(Deps{
		Notifications: gormrepo.NewNotificationRepository(db),
		Fleet:         gormrepo.NewFleetRepository(db),
		UoW:           u,
		Holds:         hold.NewManager(u, zap.NewNop(), m),
		Sender:        sender,
		Detector:      detectorFunc(func(context.Context) error { return nil }),
		BaseURL:       "https://fleet.example.com",
		Log:           zap.NewNop(),
		Metrics:       m,
	})
	r.now = func() time.Time { return fixedNow }
	return r
}

func TestResolve_TwiceIsIdempotent(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})
	ctx := context.Background()
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, 1, 3)

	first, err := r.Resolve(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, domain.StatusResolved, first.Status)
	stamped := sqlitedb.Reload(t, db, &domain.Notification{}, n.ID).ResolvedAt

	r.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := r.Resolve(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, domain.StatusResolved, second.Status)

	again := sqlitedb.Reload(t, db, &domain.Notification{}, n.ID)
	require.NotNil(t, again.ResolvedAt)
	assert.True(t, stamped.Equal(*again.ResolvedAt))
}

func TestDismiss_AfterResolveKeepsResolved(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})
	ctx := context.Background()
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, 1, 3)

	_, err := r.Resolve(ctx, n.ID)
	require.NoError(t, err)
	res, err := r.Dismiss(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, domain.StatusResolved, res.Status)
}

func TestResolve_NotFound(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})

	_, err := r.Resolve(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_ReleasesOnlyItsOwnHold(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})
	ctx := context.Background()

	v := sqlitedb.Vehicle(t, db, "V-1", nil)
	route := sqlitedb.Route(t, db, "R1", v, nil, nil)
	mine := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, -1)
	other := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 2)

	_, err := r.Holds.ApplyHold(ctx, hold.ApplyInput{EntityType: fleet.EntityVehicle, EntityID: v.ID, NotificationID: &other.ID})
	require.NoError(t, err)

	res, err := r.Resolve(ctx, mine.ID)
	require.NoError(t, err)
	assert.Nil(t, res.HoldReleased)
	assert.True(t, sqlitedb.Reload(t, db, &fleet.Vehicle{}, v.ID).OnHold, "hold placed for another notification stays")

	res, err = r.Dismiss(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, res.HoldReleased)
	assert.False(t, sqlitedb.Reload(t, db, &fleet.Vehicle{}, v.ID).OnHold)
	assert.False(t, sqlitedb.Reload(t, db, &fleet.Route{}, route.ID).OnHold)
}

func TestResolve_NoopLeavesHoldAlone(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})
	ctx := context.Background()

	v := sqlitedb.Vehicle(t, db, "V-1", nil)
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, -1)
	_, err := r.Resolve(ctx, n.ID)
	require.NoError(t, err)

	// re-held manually with the same provenance after resolution
	_, err = r.Holds.ApplyHold(ctx, hold.ApplyInput{EntityType: fleet.EntityVehicle, EntityID: v.ID, NotificationID: &n.ID})
	require.NoError(t, err)

	res, err := r.Resolve(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, res.HoldReleased)
	assert.True(t, sqlitedb.Reload(t, db, &fleet.Vehicle{}, v.ID).OnHold)
}

func TestResolve_TransitionErrorPropagates(t *testing.T) {
	boom := errors.New("deadlock")
	notes := &notificationmock.Repo{
		GetByIDFn: func(_ context.Context, id uint64) (*domain.Notification, error) {
			return &domain.Notification{ID: id, Status: domain.StatusPending}, nil
		},
		TransitionFn: func(context.Context, uint64, domain.Status, time.Time) (bool, error) {
			return false, apperr.Upstream(boom, "transition notification")
		},
	}
	m := metrics.NewNop()
	u := uowmock.Passthrough(uowRepos(notes))
	r := NewRegistry(Deps{Notifications: notes, UoW: u, Holds: hold.NewManager(u, zap.NewNop(), m), Log: zap.NewNop(), Metrics: m})

	_, err := r.Resolve(context.Background(), 4)
	require.ErrorIs(t, err, boom)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
}

func TestResolveRecipients_VehicleDedupesByEmail(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})

	owner := sqlitedb.Employee(t, db, "Owner", "owner@example.com")
	e1 := sqlitedb.Employee(t, db, "Driver One", "d1@example.com")
	e2 := sqlitedb.Employee(t, db, "Driver Two", "OWNER@example.com")
	e3 := sqlitedb.Employee(t, db, "Assistant", "pa@example.com")
	noMail := sqlitedb.Employee(t, db, "No Mail", "")

	v := sqlitedb.Vehicle(t, db, "V-1", owner)
	d1 := sqlitedb.Driver(t, db, e1)
	d2 := sqlitedb.Driver(t, db, e2)
	d3 := sqlitedb.Driver(t, db, noMail)
	pa := sqlitedb.Assistant(t, db, e3)
	sqlitedb.Route(t, db, "R1", v, d1, pa)
	sqlitedb.Route(t, db, "R2", v, d2, pa)
	sqlitedb.Route(t, db, "R3", v, d3, nil)
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 4)

	got, err := r.ResolveRecipients(context.Background(), n.ID)
	require.NoError(t, err)

	var emails, roles []string
	for _, rc := range got {
		emails = append(emails, rc.Email)
		roles = append(roles, rc.Role)
	}
	assert.Equal(t, []string{"owner@example.com", "d1@example.com", "pa@example.com"}, emails)
	assert.Equal(t, []string{RoleAssignedEmployee, RoleDriver, RoleAssistant}, roles)
}

func TestResolveRecipients_DriverIsSubject(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})

	e := sqlitedb.Employee(t, db, "Dana", "dana@example.com")
	d := sqlitedb.Driver(t, db, e)
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, 4)

	got, err := r.ResolveRecipients(context.Background(), n.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dana@example.com", got[0].Email)
	assert.Equal(t, RoleSubject, got[0].Role)
	assert.Equal(t, e.ID, *got[0].EmployeeID)
}

func TestResolveRecipients_FallbackAndNone(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})
	ctx := context.Background()

	e := sqlitedb.Employee(t, db, "No Mail", "")
	d := sqlitedb.Driver(t, db, e)

	none := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, 4)
	_, err := r.ResolveRecipients(ctx, none.ID)
	assert.ErrorIs(t, err, domain.ErrNoRecipient)
	assert.True(t, apperr.IsKind(err, apperr.KindNoRecipient))

	onFile := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, 4)
	require.NoError(t, db.Model(onFile).Update("recipient_email", "office@example.com").Error)
	got, err := r.ResolveRecipients(ctx, onFile.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, RoleOnFile, got[0].Role)

	gone := sqlitedb.Notification(t, db, fleet.EntityVehicle, 404, 4)
	_, err = r.ResolveRecipients(ctx, gone.ID)
	assert.ErrorIs(t, err, domain.ErrNoRecipient)
}

func TestSendComplianceEmail_SendsAndHolds(t *testing.T) {
	db := sqlitedb.Open(t)
	sender := &mailmock.Sender{}
	r := newRegistry(db, sender)
	ctx := context.Background()

	e := sqlitedb.Employee(t, db, "Dana", "dana@example.com")
	d := sqlitedb.Driver(t, db, e)
	v := sqlitedb.Vehicle(t, db, "V-1", nil)
	route := sqlitedb.Route(t, db, "R1", v, d, nil)
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, -3)

	res, err := r.SendComplianceEmail(ctx, n.ID, true, "coordinator-7")
	require.NoError(t, err)
	require.Equal(t, 1, sender.Count())
	msg, _ := sender.Last()
	assert.Equal(t, []string{"dana@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "EXPIRED")
	assert.Contains(t, msg.Subject, "Dana")
	assert.Contains(t, msg.Text, "/compliance/upload/"+n.EmailToken)

	require.NotNil(t, res.Hold)
	for _, hs := range []fleet.HoldState{
		sqlitedb.Reload(t, db, &fleet.Driver{}, d.ID).HoldState,
		sqlitedb.Reload(t, db, &fleet.Route{}, route.ID).HoldState,
		sqlitedb.Reload(t, db, &fleet.Vehicle{}, v.ID).HoldState,
	} {
		require.True(t, hs.OnHold)
		assert.Equal(t, hold.DefaultReason, *hs.OnHoldReason)
		assert.Equal(t, n.ID, *hs.OnHoldNotificationID)
		assert.Equal(t, "coordinator-7", *hs.OnHoldSetBy)
	}
}

func TestSendComplianceEmail_NoAutoHold(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})

	e := sqlitedb.Employee(t, db, "Dana", "dana@example.com")
	d := sqlitedb.Driver(t, db, e)
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, 12)

	res, err := r.SendComplianceEmail(context.Background(), n.ID, false, "")
	require.NoError(t, err)
	assert.Nil(t, res.Hold)
	assert.False(t, sqlitedb.Reload(t, db, &fleet.Driver{}, d.ID).OnHold)
}

func TestSendComplianceEmail_DeliveryFailureSkipsHold(t *testing.T) {
	db := sqlitedb.Open(t)
	sender := &mailmock.Sender{Err: errors.New("ses throttled")}
	r := newRegistry(db, sender)

	e := sqlitedb.Employee(t, db, "Dana", "dana@example.com")
	d := sqlitedb.Driver(t, db, e)
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, 2)

	_, err := r.SendComplianceEmail(context.Background(), n.ID, true, "u")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "ses throttled")
	assert.False(t, sqlitedb.Reload(t, db, &fleet.Driver{}, d.ID).OnHold)
}

func TestSendComplianceEmail_Rejections(t *testing.T) {
	db := sqlitedb.Open(t)
	sender := &mailmock.Sender{}
	r := newRegistry(db, sender)
	ctx := context.Background()

	e := sqlitedb.Employee(t, db, "No Mail", "")
	d := sqlitedb.Driver(t, db, e)
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, d.ID, 2)

	_, err := r.SendComplianceEmail(ctx, n.ID, true, "u")
	assert.ErrorIs(t, err, domain.ErrNoRecipient)

	_, err = r.Dismiss(ctx, n.ID)
	require.NoError(t, err)
	_, err = r.SendComplianceEmail(ctx, n.ID, true, "u")
	assert.ErrorIs(t, err, domain.ErrNotPending)
	assert.Equal(t, 0, sender.Count())
}

func TestListPending_InvalidFilter(t *testing.T) {
	r := NewRegistry(Deps{Notifications: &notificationmock.Repo{}})
	_, err := r.ListPending(context.Background(), "parking_ticket")
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestListPending_EmptyIsNotNil(t *testing.T) {
	notes := &notificationmock.Repo{
		ListPendingFn: func(_ context.Context, f *domain.Type) ([]domain.Notification, error) {
			require.NotNil(t, f)
			assert.Equal(t, domain.TypeVehicleBreakdown, *f)
			return nil, nil
		},
	}
	r := NewRegistry(Deps{Notifications: notes})
	out, err := r.ListPending(context.Background(), "vehicle_breakdown")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestPublicContext(t *testing.T) {
	db := sqlitedb.Open(t)
	r := newRegistry(db, &mailmock.Sender{})
	ctx := context.Background()
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, 1, 6)

	view, err := r.PublicContext(ctx, n.EmailToken)
	require.NoError(t, err)
	assert.Equal(t, "MOT Certificate", view.CertificateName)
	assert.Equal(t, domain.StatusPending, view.Status)

	_, err = r.PublicContext(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.PublicContext(ctx, "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunDetection(t *testing.T) {
	missing := apperr.New(apperr.KindConfiguration, "expiry detection function is missing")
	calls := 0
	r := NewRegistry(Deps{
		Detector: detectorFunc(func(context.Context) error { calls++; return missing }),
		Log:      zap.NewNop(),
	})
	err := r.RunDetection(context.Background())
	assert.ErrorIs(t, err, missing)
	assert.Equal(t, 1, calls)

	r.Detector = detectorFunc(func(context.Context) error { return nil })
	assert.NoError(t, r.RunDetection(context.Background()))
}

func uowRepos(notes domain.Repository) uow.Repos { return uow.Repos{Notifications: notes} }
