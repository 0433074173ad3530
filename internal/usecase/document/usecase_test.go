package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/repository/gormrepo"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/document"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/mailmock"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/sqlitedb"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/testutil/uowmock"
)

var fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newMatcher(db *gorm.DB, sender *mailmock.Sender, m *metrics.Metrics) *Matcher {
	u := NewMatcher(Deps{
		Documents:   gormrepo.NewDocumentRepository(db),
		UoW:         gormrepo.NewGormUoW(db),
		Sender:      sender,
		AdminEmails: []string{"ops@example.com"},
		Log:         zap.NewNop(),
		Metrics:     m,
	})
	u.now = func() time.Time { return fixedNow }
	return u
}

func requirement(t *testing.T, db *gorm.DB, code string, st domain.SubjectType, expiry, number bool) *domain.Requirement {
	t.Helper()
	return sqlitedb.Create(t, db, &domain.Requirement{
		Name:           code + " certificate",
		Code:           code,
		SubjectType:    st,
		RequiresExpiry: expiry,
		RequiresNumber: number,
		Criticality:    domain.CriticalityCritical,
		IsRequired:     true,
		IsActive:       true,
	})
}

func strp(s string) *string { return &s }

func TestRequirementsFor(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	requirement(t, db, "mot", domain.SubjectVehicle, true, false)
	requirement(t, db, "dbs", domain.SubjectDriver, true, true)

	reqs, err := u.RequirementsFor(context.Background(), "vehicle")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "mot", reqs[0].Code)

	reqs, err = u.RequirementsFor(context.Background(), "employee")
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)

	_, err = u.RequirementsFor(context.Background(), "school")
	assert.ErrorIs(t, err, domain.ErrInvalidSubjectType)
}

func TestUpsertFulfillment_CreateThenUpdate(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	ctx := context.Background()
	req := requirement(t, db, "mot", domain.SubjectVehicle, true, false)
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)

	d, err := u.UpsertFulfillment(ctx, UpsertInput{RequirementID: req.ID, SubjectType: "vehicle", SubjectID: v.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMissing, d.Status)
	require.NotNil(t, d.VehicleID)
	assert.Equal(t, v.ID, *d.VehicleID)

	expiry := fixedNow.AddDate(1, 0, 0)
	again, err := u.UpsertFulfillment(ctx, UpsertInput{
		RequirementID: req.ID, SubjectType: "vehicle", SubjectID: v.ID,
		Status: "valid", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)
	assert.Equal(t, domain.StatusValid, again.Status)

	var count int64
	require.NoError(t, db.Model(&domain.SubjectDocument{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	views, err := u.DocumentsFor(ctx, "vehicle", v.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, domain.StatusValid, views[0].EffectiveStatus)
}

func TestUpsertFulfillment_Rejections(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	mot := requirement(t, db, "mot", domain.SubjectVehicle, true, false)
	dbs := requirement(t, db, "dbs", domain.SubjectDriver, false, true)
	old := requirement(t, db, "old", domain.SubjectVehicle, false, false)
	require.NoError(t, db.Model(old).Update("is_active", false).Error)

	tests := []struct {
		name string
		in   UpsertInput
		want error
	}{
		{"bad subject type", UpsertInput{RequirementID: mot.ID, SubjectType: "school", SubjectID: 1}, domain.ErrInvalidSubjectType},
		{"missing subject id", UpsertInput{RequirementID: mot.ID, SubjectType: "vehicle"}, domain.ErrInvalidSubjectID},
		{"bad status", UpsertInput{RequirementID: mot.ID, SubjectType: "vehicle", SubjectID: 1, Status: "lost"}, domain.ErrInvalidStatus},
		{"unknown requirement", UpsertInput{RequirementID: 999, SubjectType: "vehicle", SubjectID: 1}, domain.ErrRequirementNotFound},
		{"subject mismatch", UpsertInput{RequirementID: dbs.ID, SubjectType: "vehicle", SubjectID: 1}, domain.ErrSubjectMismatch},
		{"inactive", UpsertInput{RequirementID: old.ID, SubjectType: "vehicle", SubjectID: 1}, domain.ErrRequirementInactive},
		{"valid without expiry", UpsertInput{RequirementID: mot.ID, SubjectType: "vehicle", SubjectID: 1, Status: "valid"}, domain.ErrExpiryRequired},
		{"valid without number", UpsertInput{RequirementID: dbs.ID, SubjectType: "driver", SubjectID: 1, Status: "valid", CertificateNumber: strp("  ")}, domain.ErrNumberRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.UpsertFulfillment(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, db.Model(&domain.SubjectDocument{}).Count(&count).Error)
	assert.Zero(t, count)
}

// racingDocuments lets another writer commit the row between the first
// lookup and the insert that follows it.
type racingDocuments struct {
	*gormrepo.DocumentRepository
	db    *gorm.DB
	raced bool
}

func (r *racingDocuments) FindFulfillment(ctx context.Context, requirementID uint64, t domain.SubjectType, subjectID uint64) (*domain.SubjectDocument, error) {
	if !r.raced {
		r.raced = true
		rival := &domain.SubjectDocument{RequirementID: requirementID, Status: domain.StatusMissing}
		if err := rival.SetSubject(t, subjectID); err != nil {
			return nil, err
		}
		if err := r.db.Create(rival).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}
	return r.DocumentRepository.FindFulfillment(ctx, requirementID, t, subjectID)
}

func TestUpsertFulfillment_LostInsertRaceUpdatesWinner(t *testing.T) {
	db := sqlitedb.Open(t)
	docs := &racingDocuments{DocumentRepository: gormrepo.NewDocumentRepository(db), db: db}
	u := NewMatcher(Deps{
		Documents: docs,
		UoW:       uowmock.Passthrough(uow.Repos{Documents: docs, Fleet: gormrepo.NewFleetRepository(db)}),
		Sender:    &mailmock.Sender{},
		Log:       zap.NewNop(),
		Metrics:   metrics.NewNop(),
	})
	u.now = func() time.Time { return fixedNow }
	req := requirement(t, db, "mot", domain.SubjectVehicle, true, false)
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)

	d, err := u.UpsertFulfillment(context.Background(), UpsertInput{
		RequirementID: req.ID, SubjectType: "vehicle", SubjectID: v.ID, Status: "pending",
	})
	require.NoError(t, err)
	assert.True(t, docs.raced)
	assert.Equal(t, domain.StatusPending, d.Status)

	var rows []domain.SubjectDocument
	require.NoError(t, db.Where("vehicle_id = ?", v.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, d.ID, rows[0].ID)
	assert.Equal(t, domain.StatusPending, rows[0].Status)
}

func TestDocumentsFor_ProjectsExpiry(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	req := requirement(t, db, "mot", domain.SubjectVehicle, true, false)
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)

	lapsed := fixedNow.AddDate(0, 0, -3)
	_, err := u.UpsertFulfillment(context.Background(), UpsertInput{
		RequirementID: req.ID, SubjectType: "vehicle", SubjectID: v.ID,
		Status: "valid", ExpiryDate: &lapsed,
	})
	require.NoError(t, err)

	ov, err := u.Overview(context.Background(), "vehicle", v.ID)
	require.NoError(t, err)
	require.Len(t, ov.Requirements, 1)
	require.Len(t, ov.Documents, 1)
	assert.Equal(t, domain.StatusValid, ov.Documents[0].Status)
	assert.Equal(t, domain.StatusExpired, ov.Documents[0].EffectiveStatus)
	require.NotNil(t, ov.Documents[0].Requirement)
	assert.Equal(t, "mot", ov.Documents[0].Requirement.Code)
}

func TestRecordUpload_MatchesVehicleRequirement(t *testing.T) {
	db := sqlitedb.Open(t)
	sender := &mailmock.Sender{}
	u := newMatcher(db, sender, metrics.NewNop())
	req := requirement(t, db, "mot", domain.SubjectVehicle, true, false)
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 5)

	expiry := fixedNow.AddDate(1, 0, 0)
	res, err := u.RecordUpload(context.Background(), UploadInput{
		Token: n.EmailToken, FileName: "mot.pdf", FilePath: "uploads/mot.pdf",
		MimeType: "application/pdf", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	require.NotNil(t, res.File.NotificationID)
	assert.Equal(t, n.ID, *res.File.NotificationID)
	assert.Equal(t, domain.StatusPending, res.Document.Status)
	assert.Equal(t, req.ID, res.Document.RequirementID)

	docs, err := u.DocumentsFor(context.Background(), "vehicle", v.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Files, 1)
	assert.Equal(t, "mot.pdf", docs[0].Files[0].FileName)

	msg, ok := sender.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Contains(t, msg.Text, "mot.pdf")
}

func TestRecordUpload_DriverMapsToEmployee(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	requirement(t, db, "mot", domain.SubjectDriver, false, false)
	emp := sqlitedb.Employee(t, db, "Dana Driver", "dana@example.com")
	// Shift the driver id away from the employee id.
	sqlitedb.Driver(t, db, sqlitedb.Employee(t, db, "Other", ""))
	drv := sqlitedb.Driver(t, db, emp)
	n := sqlitedb.Notification(t, db, fleet.EntityDriver, drv.ID, 2)

	res, err := u.RecordUpload(context.Background(), UploadInput{Token: n.EmailToken, FileName: "a.pdf", FilePath: "uploads/a.pdf"})
	require.NoError(t, err)
	require.True(t, res.Matched)
	require.NotNil(t, res.Document.DriverEmployeeID)
	assert.Equal(t, emp.ID, *res.Document.DriverEmployeeID)
}

func TestRecordUpload_UnmatchedKeepsFile(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 5)

	res, err := u.RecordUpload(context.Background(), UploadInput{Token: n.EmailToken, FileName: "x.pdf", FilePath: "uploads/x.pdf"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Document)
	assert.NotZero(t, res.File.ID)
}

func TestRecordUpload_Rejections(t *testing.T) {
	db := sqlitedb.Open(t)
	u := newMatcher(db, &mailmock.Sender{}, metrics.NewNop())
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 5)
	closed := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 5)
	require.NoError(t, db.Model(closed).Update("status", notification.StatusResolved).Error)

	tests := []struct {
		name string
		in   UploadInput
		want error
	}{
		{"malformed token", UploadInput{Token: "abc", FileName: "a", FilePath: "b"}, notification.ErrInvalidToken},
		{"unknown token", UploadInput{Token: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", FileName: "a", FilePath: "b"}, notification.ErrInvalidToken},
		{"closed notification", UploadInput{Token: closed.EmailToken, FileName: "a", FilePath: "b"}, notification.ErrNotPending},
		{"missing file", UploadInput{Token: n.EmailToken}, ErrFileRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.RecordUpload(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}

	var files int64
	require.NoError(t, db.Model(&domain.UploadedFile{}).Count(&files).Error)
	assert.Zero(t, files)
}

func TestRecordUpload_SummaryFailureIsBestEffort(t *testing.T) {
	db := sqlitedb.Open(t)
	m := metrics.NewNop()
	u := newMatcher(db, &mailmock.Sender{Err: errors.New("smtp down")}, m)
	v := sqlitedb.Vehicle(t, db, "AB12 CDE", nil)
	n := sqlitedb.Notification(t, db, fleet.EntityVehicle, v.ID, 5)

	_, err := u.RecordUpload(context.Background(), UploadInput{Token: n.EmailToken, FileName: "a.pdf", FilePath: "uploads/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideChannelFailures.WithLabelValues(SideChannelUploadSummary)))
}
