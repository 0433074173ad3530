package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/hold"
	"github.com/ali-abouelaish/FleetManager-sub004/pkg/id"
)

type Deps struct {
	Notifications domain.Repository
	Fleet         fleet.Repository
	UoW           uow.UnitOfWork
	Holds         *hold.Manager
	Sender        mail.Sender
	Detector      domain.Detector
	BaseURL       string
	Log           *zap.Logger
	Metrics       *metrics.Metrics
}

// Registry owns the notification lifecycle and the compliance email.
type Registry struct {
	Deps
	now func() time.Time
}

func NewRegistry(d Deps) *Registry {
	return &Registry{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Registry) ListPending(ctx context.Context, filter string) ([]domain.Notification, error) {
	var f *domain.Type
	if filter != "" {
		t := domain.Type(filter)
		if !t.Valid() {
			return nil, domain.ErrInvalidType
		}
		f = &t
	}
	out, err := u.Notifications.ListPending(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Notification{}
	}
	return out, nil
}

func (u *Registry) Get(ctx context.Context, notificationID uint64) (*domain.Notification, error) {
	return u.Notifications.GetByID(ctx, notificationID)
}

func (u *Registry) Resolve(ctx context.Context, notificationID uint64) (*TransitionResult, error) {
	return u.transition(ctx, notificationID, domain.StatusResolved)
}

func (u *Registry) Dismiss(ctx context.Context, notificationID uint64) (*TransitionResult, error) {
	return u.transition(ctx, notificationID, domain.StatusDismissed)
}

// transition moves a pending notification to a terminal status and, in the
// same transaction, releases any hold that was placed for it. A notification
// that is already terminal reports success with Changed=false.
func (u *Registry) transition(ctx context.Context, notificationID uint64, to domain.Status) (*TransitionResult, error) {
	res := &TransitionResult{NotificationID: notificationID}
	at := u.now()
	err := u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		n, err := r.Notifications.GetByID(ctx, notificationID)
		if err != nil {
			return err
		}
		changed, err := r.Notifications.Transition(ctx, n.ID, to, at)
		if err != nil {
			return err
		}
		res.Changed = changed
		if !changed {
			cur, err := r.Notifications.GetByID(ctx, n.ID)
			if err != nil {
				return err
			}
			res.Status = cur.Status
			return nil
		}
		res.Status = to
		res.HoldReleased, err = u.Holds.ReleaseFor(ctx, r.Fleet, n.EntityType, n.EntityID, n.ID, at)
		return err
	})
	if err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			u.Metrics.Transition(string(to), "error")
		}
		return nil, err
	}

	result := "changed"
	if !res.Changed {
		result = "noop"
	}
	u.Metrics.Transition(string(to), result)
	u.Holds.Record(hold.ActionClear, res.HoldReleased)
	u.Log.Info("notification transition",
		zap.Uint64("notification_id", notificationID),
		zap.String("to", string(to)),
		zap.Bool("changed", res.Changed),
		zap.Bool("hold_released", res.HoldReleased != nil))
	return res, nil
}

// ResolveRecipients lists who should receive the compliance email, one
// entry per distinct address. It fails with ErrNoRecipient when nobody has
// an email on file.
func (u *Registry) ResolveRecipients(ctx context.Context, notificationID uint64) ([]Recipient, error) {
	n, err := u.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	return u.recipientsFor(ctx, n)
}

func (u *Registry) recipientsFor(ctx context.Context, n *domain.Notification) ([]Recipient, error) {
	var rs recipientSet
	var err error
	switch n.EntityType {
	case fleet.EntityVehicle:
		err = u.vehicleRecipients(ctx, n.EntityID, &rs)
	case fleet.EntityDriver:
		var d *fleet.Driver
		if d, err = u.Fleet.GetDriver(ctx, n.EntityID); err == nil {
			rs.add(d.Employee, RoleSubject)
		}
	case fleet.EntityAssistant:
		var a *fleet.PassengerAssistant
		if a, err = u.Fleet.GetAssistant(ctx, n.EntityID); err == nil {
			rs.add(a.Employee, RoleSubject)
		}
	}
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}

	if len(rs.list) == 0 && n.RecipientEmail != nil {
		rs.addEmail(n.RecipientEmployeeID, "", *n.RecipientEmail, RoleOnFile)
	}
	if len(rs.list) == 0 && n.RecipientEmployeeID != nil {
		e, err := u.Fleet.GetEmployee(ctx, *n.RecipientEmployeeID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return nil, err
		}
		rs.add(e, RoleOnFile)
	}
	if len(rs.list) == 0 {
		return nil, domain.ErrNoRecipient
	}
	return rs.list, nil
}

// vehicleRecipients collects the assigned employee and every driver and
// assistant rostered on a route using the vehicle.
func (u *Registry) vehicleRecipients(ctx context.Context, vehicleID uint64, rs *recipientSet) error {
	v, err := u.Fleet.GetVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	rs.add(v.AssignedEmployee, RoleAssignedEmployee)

	routes, err := u.Fleet.RoutesByVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	var driverIDs, paIDs []uint64
	for _, r := range routes {
		if r.DriverID != nil {
			driverIDs = append(driverIDs, *r.DriverID)
		}
		if r.PassengerAssistantID != nil {
			paIDs = append(paIDs, *r.PassengerAssistantID)
		}
	}
	drivers, err := u.Fleet.DriversByIDs(ctx, driverIDs)
	if err != nil {
		return err
	}
	for _, d := range drivers {
		rs.add(d.Employee, RoleDriver)
	}
	pas, err := u.Fleet.AssistantsByIDs(ctx, paIDs)
	if err != nil {
		return err
	}
	for _, a := range pas {
		rs.add(a.Employee, RoleAssistant)
	}
	return nil
}

type recipientSet struct {
	seen map[string]bool
	list []Recipient
}

func (s *recipientSet) add(e *fleet.Employee, role string) {
	if e == nil || e.Email == nil {
		return
	}
	id := e.ID
	s.addEmail(&id, e.FullName, *e.Email, role)
}

func (s *recipientSet) addEmail(employeeID *uint64, name, email, role string) {
	email = strings.TrimSpace(email)
	key := strings.ToLower(email)
	if key == "" {
		return
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.list = append(s.list, Recipient{EmployeeID: employeeID, Name: name, Email: email, Role: role})
}

func (u *Registry) BuildEmailContent(ctx context.Context, notificationID uint64) (*EmailContent, error) {
	n, err := u.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	return u.compose(ctx, n)
}

func (u *Registry) compose(ctx context.Context, n *domain.Notification) (*EmailContent, error) {
	label, err := u.subjectLabel(ctx, n)
	if err != nil {
		return nil, err
	}
	c, err := ComposeEmail(*n, label, u.BaseURL, u.now())
	if err != nil {
		return nil, apperr.Upstream(err, "render compliance email")
	}
	return c, nil
}

// subjectLabel names the entity for the email, falling back to its type
// and id when the record is gone.
func (u *Registry) subjectLabel(ctx context.Context, n *domain.Notification) (string, error) {
	fallback := fmt.Sprintf("%s #%d", n.EntityType, n.EntityID)
	var label string
	var err error
	switch n.EntityType {
	case fleet.EntityVehicle:
		var v *fleet.Vehicle
		if v, err = u.Fleet.GetVehicle(ctx, n.EntityID); err == nil {
			label = "vehicle " + v.Registration
		}
	case fleet.EntityDriver:
		var d *fleet.Driver
		if d, err = u.Fleet.GetDriver(ctx, n.EntityID); err == nil && d.Employee != nil {
			label = d.Employee.FullName
		}
	case fleet.EntityAssistant:
		var a *fleet.PassengerAssistant
		if a, err = u.Fleet.GetAssistant(ctx, n.EntityID); err == nil && a.Employee != nil {
			label = a.Employee.FullName
		}
	}
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return "", err
	}
	if label == "" {
		label = fallback
	}
	return label, nil
}

// SendComplianceEmail emails every recipient and, when autoHold is set,
// places the entity on hold for this notification. A delivery failure
// fails the call and no hold is applied.
func (u *Registry) SendComplianceEmail(ctx context.Context, notificationID uint64, autoHold bool, actor string) (*SendResult, error) {
	n, err := u.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.Status.Terminal() {
		return nil, domain.ErrNotPending
	}
	recipients, err := u.recipientsFor(ctx, n)
	if err != nil {
		return nil, err
	}
	content, err := u.compose(ctx, n)
	if err != nil {
		return nil, err
	}

	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		to = append(to, r.Email)
	}
	if err := u.Sender.Send(ctx, mail.Message{To: to, Subject: content.Subject, Text: content.Text, HTML: content.HTML}); err != nil {
		u.Log.Error("compliance email failed", zap.Uint64("notification_id", n.ID), zap.Error(err))
		return nil, apperr.Upstream(err, "send compliance email")
	}

	res := &SendResult{NotificationID: n.ID, Recipients: recipients, Subject: content.Subject}
	u.Log.Info("compliance email sent", zap.Uint64("notification_id", n.ID), zap.Int("recipients", len(to)))

	if autoHold && n.EntityType.Valid() {
		nid := n.ID
		res.Hold, err = u.Holds.ApplyHold(ctx, hold.ApplyInput{
			EntityType:     n.EntityType,
			EntityID:       n.EntityID,
			NotificationID: &nid,
			Reason:         hold.DefaultReason,
			SetBy:          actor,
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RunDetection asks the database to create notifications for certificates
// nearing expiry.
func (u *Registry) RunDetection(ctx context.Context) error {
	if err := u.Detector.CreateCertificateNotifications(ctx); err != nil {
		u.Log.Error("expiry detection failed", zap.Error(err))
		return err
	}
	u.Log.Info("expiry detection completed")
	return nil
}

// PublicContext looks a notification up by its email token. Malformed and
// unknown tokens are both reported as not found.
func (u *Registry) PublicContext(ctx context.Context, token string) (*PublicView, error) {
	if !id.IsToken(token) {
		return nil, domain.ErrNotFound
	}
	n, err := u.Notifications.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &PublicView{
		NotificationType: n.NotificationType,
		CertificateType:  n.CertificateType,
		CertificateName:  n.CertificateName,
		ExpiryDate:       n.ExpiryDate,
		DaysUntilExpiry:  n.DaysUntilExpiry,
		EntityType:       n.EntityType,
		Status:           n.Status,
	}, nil
}
