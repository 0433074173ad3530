package document

import "context"

type Repository interface {
	RequirementsFor(ctx context.Context, subjectType SubjectType) ([]Requirement, error)
	GetRequirement(ctx context.Context, id uint64) (*Requirement, error)
	// FindRequirementByCode looks up an active requirement; nil, nil when
	// nothing matches.
	FindRequirementByCode(ctx context.Context, subjectType SubjectType, code string) (*Requirement, error)

	// DocumentsFor preloads requirement and files.
	DocumentsFor(ctx context.Context, subjectType SubjectType, subjectID uint64) ([]SubjectDocument, error)
	// FindFulfillment returns nil, nil when no row exists yet.
	FindFulfillment(ctx context.Context, requirementID uint64, subjectType SubjectType, subjectID uint64) (*SubjectDocument, error)
	// CreateFulfillmentIfAbsent inserts d unless a row already exists for
	// its (requirement, subject). created is false when another row won.
	CreateFulfillmentIfAbsent(ctx context.Context, d *SubjectDocument) (created bool, err error)
	SaveFulfillment(ctx context.Context, d *SubjectDocument) error

	CreateFile(ctx context.Context, f *UploadedFile) error
	AttachFiles(ctx context.Context, d *SubjectDocument, files ...UploadedFile) error
}
