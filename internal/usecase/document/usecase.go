package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/document"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/uow"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/pkg/id"
)

const SideChannelUploadSummary = "upload_summary"

var ErrFileRequired = apperr.Validation("file_name and file_path are required")

type Deps struct {
	Documents   domain.Repository
	UoW         uow.UnitOfWork
	Sender      mail.Sender
	AdminEmails []string
	Log         *zap.Logger
	Metrics     *metrics.Metrics
}

// Matcher maps subjects to their document requirements and records
// fulfillments.
type Matcher struct {
	Deps
	now func() time.Time
}

func NewMatcher(d Deps) *Matcher {
	return &Matcher{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

type DocumentView struct {
	domain.SubjectDocument
	EffectiveStatus domain.Status `json:"effective_status"`
}

type Overview struct {
	SubjectType  domain.SubjectType   `json:"subject_type"`
	SubjectID    uint64               `json:"subject_id"`
	Requirements []domain.Requirement `json:"requirements"`
	Documents    []DocumentView       `json:"documents"`
}

type UpsertInput struct {
	RequirementID     uint64
	SubjectType       string
	SubjectID         uint64
	Status            string
	CertificateNumber *string
	IssueDate         *time.Time
	ExpiryDate        *time.Time
	Notes             *string
}

type UploadInput struct {
	Token             string
	FileName          string
	FilePath          string
	MimeType          string
	CertificateNumber *string
	ExpiryDate        *time.Time
}

type UploadResult struct {
	File *domain.UploadedFile `json:"file"`
	// Document is nil when no active requirement matched the certificate.
	Document *domain.SubjectDocument `json:"document,omitempty"`
	Matched  bool                    `json:"matched"`
}

func parseSubjectType(raw string) (domain.SubjectType, error) {
	t := domain.SubjectType(strings.TrimSpace(raw))
	if _, ok := t.Column(); !ok {
		return "", domain.ErrInvalidSubjectType
	}
	return t, nil
}

func (u *Matcher) RequirementsFor(ctx context.Context, subjectType string) ([]domain.Requirement, error) {
	t, err := parseSubjectType(subjectType)
	if err != nil {
		return nil, err
	}
	out, err := u.Documents.RequirementsFor(ctx, t)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Requirement{}
	}
	return out, nil
}

func (u *Matcher) DocumentsFor(ctx context.Context, subjectType string, subjectID uint64) ([]DocumentView, error) {
	t, err := parseSubjectType(subjectType)
	if err != nil {
		return nil, err
	}
	if subjectID == 0 {
		return nil, domain.ErrInvalidSubjectID
	}
	docs, err := u.Documents.DocumentsFor(ctx, t, subjectID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	out := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentView{SubjectDocument: d, EffectiveStatus: d.EffectiveStatus(now)})
	}
	return out, nil
}

// Overview lists the active requirements for the subject type next to
// the subject's fulfillment rows.
func (u *Matcher) Overview(ctx context.Context, subjectType string, subjectID uint64) (*Overview, error) {
	reqs, err := u.RequirementsFor(ctx, subjectType)
	if err != nil {
		return nil, err
	}
	docs, err := u.DocumentsFor(ctx, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	return &Overview{SubjectType: domain.SubjectType(subjectType), SubjectID: subjectID, Requirements: reqs, Documents: docs}, nil
}

// UpsertFulfillment creates or updates the row for (requirement, subject).
// Status defaults to missing.
func (u *Matcher) UpsertFulfillment(ctx context.Context, in UpsertInput) (*domain.SubjectDocument, error) {
	t, err := parseSubjectType(in.SubjectType)
	if err != nil {
		return nil, err
	}
	if in.SubjectID == 0 {
		return nil, domain.ErrInvalidSubjectID
	}
	status := domain.StatusMissing
	if s := strings.TrimSpace(in.Status); s != "" {
		status = domain.Status(s)
		if !status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}

	var out *domain.SubjectDocument
	err = u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Documents.GetRequirement(ctx, in.RequirementID)
		if err != nil {
			return err
		}
		if req.SubjectType != t {
			return domain.ErrSubjectMismatch
		}
		if !req.IsActive {
			return domain.ErrRequirementInactive
		}
		if status == domain.StatusValid {
			if req.RequiresExpiry && in.ExpiryDate == nil {
				return domain.ErrExpiryRequired
			}
			if req.RequiresNumber && (in.CertificateNumber == nil || strings.TrimSpace(*in.CertificateNumber) == "") {
				return domain.ErrNumberRequired
			}
		}

		d, err := upsertRow(ctx, r.Documents, req.ID, t, in.SubjectID, func(d *domain.SubjectDocument) {
			d.Status = status
			d.CertificateNumber = in.CertificateNumber
			d.IssueDate = in.IssueDate
			d.ExpiryDate = in.ExpiryDate
			d.Notes = in.Notes
		})
		if err != nil {
			return err
		}
		d.Requirement = req
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.Log.Info("fulfillment recorded",
		zap.Uint64("document_id", out.ID),
		zap.Uint64("requirement_id", out.RequirementID),
		zap.String("subject_type", string(t)),
		zap.String("status", string(out.Status)))
	return out, nil
}

// upsertRow applies fn to the fulfillment for (requirement, subject),
// creating the row when absent. Losing an insert race to another writer
// turns into an update of the winner's row.
func upsertRow(ctx context.Context, repo domain.Repository, requirementID uint64, t domain.SubjectType, subjectID uint64, fn func(*domain.SubjectDocument)) (*domain.SubjectDocument, error) {
	d, err := repo.FindFulfillment(ctx, requirementID, t, subjectID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = &domain.SubjectDocument{RequirementID: requirementID}
		if err := d.SetSubject(t, subjectID); err != nil {
			return nil, err
		}
		fn(d)
		created, err := repo.CreateFulfillmentIfAbsent(ctx, d)
		if err != nil || created {
			return d, err
		}
		d, err = repo.FindFulfillment(ctx, requirementID, t, subjectID)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, apperr.Newf(apperr.KindConflict, "fulfillment for requirement %d changed concurrently", requirementID)
		}
	}
	fn(d)
	if err := repo.SaveFulfillment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SubjectFor maps a notification's entity to the document subject it
// belongs to. Drivers and assistants are keyed by their employee id.
func SubjectFor(ctx context.Context, repo fleet.Repository, t fleet.EntityType, entityID uint64) (domain.SubjectType, uint64, error) {
	switch t {
	case fleet.EntityVehicle:
		return domain.SubjectVehicle, entityID, nil
	case fleet.EntityDriver:
		d, err := repo.GetDriver(ctx, entityID)
		if err != nil {
			return "", 0, err
		}
		return domain.SubjectDriver, d.EmployeeID, nil
	case fleet.EntityAssistant:
		a, err := repo.GetAssistant(ctx, entityID)
		if err != nil {
			return "", 0, err
		}
		return domain.SubjectPA, a.EmployeeID, nil
	}
	return "", 0, fleet.ErrInvalidEntityType
}

// RecordUpload stores a file a recipient uploaded through their token link
// and, when the certificate matches an active requirement, marks the
// subject's fulfillment pending review with the file attached.
func (u *Matcher) RecordUpload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if !id.IsToken(in.Token) {
		return nil, notification.ErrInvalidToken
	}
	if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.FilePath) == "" {
		return nil, ErrFileRequired
	}

	res := &UploadResult{}
	var n *notification.Notification
	now := u.now()
	err := u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		n, err = r.Notifications.GetByToken(ctx, in.Token)
		if err != nil {
			if errors.Is(err, notification.ErrNotFound) {
				return notification.ErrInvalidToken
			}
			return err
		}
		if n.Status.Terminal() {
			return notification.ErrNotPending
		}

		nid := n.ID
		f := &domain.UploadedFile{
			NotificationID: &nid,
			FileName:       strings.TrimSpace(in.FileName),
			FilePath:       strings.TrimSpace(in.FilePath),
			MimeType:       in.MimeType,
			UploadedAt:     now,
		}
		if err := r.Documents.CreateFile(ctx, f); err != nil {
			return err
		}
		res.File = f

		st, subjectID, err := SubjectFor(ctx, r.Fleet, n.EntityType, n.EntityID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return nil
			}
			return err
		}
		req, err := r.Documents.FindRequirementByCode(ctx, st, n.CertificateType)
		if err != nil || req == nil {
			return err
		}

		d, err := upsertRow(ctx, r.Documents, req.ID, st, subjectID, func(d *domain.SubjectDocument) {
			d.Status = domain.StatusPending
			if in.CertificateNumber != nil {
				d.CertificateNumber = in.CertificateNumber
			}
			if in.ExpiryDate != nil {
				d.ExpiryDate = in.ExpiryDate
			}
		})
		if err != nil {
			return err
		}
		if err := r.Documents.AttachFiles(ctx, d, *f); err != nil {
			return err
		}
		d.Requirement = req
		res.Document = d
		res.Matched = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.Log.Info("upload recorded",
		zap.Uint64("notification_id", n.ID),
		zap.Uint64("file_id", res.File.ID),
		zap.Bool("matched", res.Matched))
	u.sendSummary(ctx, n, res)
	return res, nil
}

func (u *Matcher) sendSummary(ctx context.Context, n *notification.Notification, res *UploadResult) {
	if u.Sender == nil || len(u.AdminEmails) == 0 {
		return
	}
	subject := fmt.Sprintf("Document uploaded: %s for %s #%d", n.CertificateName, n.EntityType, n.EntityID)
	text := fmt.Sprintf("A document was uploaded for notification #%d.\nFile: %s\nMatched requirement: %t\n",
		n.ID, res.File.FileName, res.Matched)
	if err := u.Sender.Send(ctx, mail.Message{To: u.AdminEmails, Subject: subject, Text: text}); err != nil {
		u.Metrics.SideChannelFailure(SideChannelUploadSummary)
		u.Log.Warn("upload summary email failed", zap.Uint64("notification_id", n.ID), zap.Error(err))
	}
}
