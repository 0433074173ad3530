package gormrepo

import (
	"context"
	"errors"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/document"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

var _ document.Repository = (*DocumentRepository)(nil)

func (r *DocumentRepository) RequirementsFor(ctx context.Context, subjectType document.SubjectType) ([]document.Requirement, error) {
	var out []document.Requirement
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND is_active = ?", subjectType, true).
		Order("name ASC").
		Find(&out).Error
	return out, apperr.Upstream(err, "list document requirements")
}

func (r *DocumentRepository) GetRequirement(ctx context.Context, id uint64) (*document.Requirement, error) {
	var out document.Requirement
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, document.ErrRequirementNotFound, "load document requirement")
	}
	return &out, nil
}

func (r *DocumentRepository) FindRequirementByCode(ctx context.Context, subjectType document.SubjectType, code string) (*document.Requirement, error) {
	var out document.Requirement
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND code = ? AND is_active = ?", subjectType, code, true).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Upstream(err, "find document requirement")
	}
	return &out, nil
}

func (r *DocumentRepository) DocumentsFor(ctx context.Context, subjectType document.SubjectType, subjectID uint64) ([]document.SubjectDocument, error) {
	col, ok := subjectType.Column()
	if !ok {
		return nil, document.ErrInvalidSubjectType
	}
	var out []document.SubjectDocument
	err := r.db.WithContext(ctx).
		Preload("Requirement").
		Preload("Files").
		Where("subject_type = ? AND "+col+" = ?", subjectType, subjectID).
		Order("id ASC").
		Find(&out).Error
	return out, apperr.Upstream(err, "list subject documents")
}

func (r *DocumentRepository) FindFulfillment(ctx context.Context, requirementID uint64, subjectType document.SubjectType, subjectID uint64) (*document.SubjectDocument, error) {
	col, ok := subjectType.Column()
	if !ok {
		return nil, document.ErrInvalidSubjectType
	}
	var out document.SubjectDocument
	err := r.db.WithContext(ctx).
		Where("requirement_id = ? AND subject_type = ? AND "+col+" = ?", requirementID, subjectType, subjectID).
		Order("id DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Upstream(err, "find subject document")
	}
	return &out, nil
}

// CreateFulfillmentIfAbsent is an insert-or-ignore on the
// (requirement_id, subject_type, subject_key) index.
func (r *DocumentRepository) CreateFulfillmentIfAbsent(ctx context.Context, d *document.SubjectDocument) (bool, error) {
	if _, ok := d.SubjectID(); !ok {
		return false, document.ErrSubjectKeys
	}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "requirement_id"}, {Name: "subject_type"}, {Name: "subject_key"}},
			DoNothing: true,
		}).
		Create(d)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return false, nil
		}
		return false, apperr.Upstream(res.Error, "create subject document")
	}
	return res.RowsAffected == 1, nil
}

func (r *DocumentRepository) SaveFulfillment(ctx context.Context, d *document.SubjectDocument) error {
	if _, ok := d.SubjectID(); !ok {
		return document.ErrSubjectKeys
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(d).Error
	return apperr.Upstream(err, "save subject document")
}

func (r *DocumentRepository) CreateFile(ctx context.Context, f *document.UploadedFile) error {
	return apperr.Upstream(r.db.WithContext(ctx).Create(f).Error, "create uploaded file")
}

func (r *DocumentRepository) AttachFiles(ctx context.Context, d *document.SubjectDocument, files ...document.UploadedFile) error {
	if len(files) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(d).Association("Files").Append(files)
	return apperr.Upstream(err, "attach files")
}
