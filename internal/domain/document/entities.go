package document

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
)

// SubjectType is the kind of subject a requirement applies to.
type SubjectType string

const (
	SubjectDriver   SubjectType = "driver"
	SubjectPA       SubjectType = "pa"
	SubjectVehicle  SubjectType = "vehicle"
	SubjectEmployee SubjectType = "employee"
)

// Column is the subject_documents foreign key that holds this subject's id.
func (t SubjectType) Column() (string, bool) {
	switch t {
	case SubjectDriver:
		return "driver_employee_id", true
	case SubjectPA:
		return "pa_employee_id", true
	case SubjectVehicle:
		return "vehicle_id", true
	case SubjectEmployee:
		return "employee_id", true
	}
	return "", false
}

type Criticality string

const (
	CriticalityCritical    Criticality = "critical"
	CriticalityRecommended Criticality = "recommended"
)

type Status string

const (
	StatusMissing Status = "missing"
	StatusPending Status = "pending"
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusMissing, StatusPending, StatusValid, StatusExpired:
		return true
	}
	return false
}

var (
	ErrRequirementNotFound = apperr.New(apperr.KindNotFound, "document requirement not found")
	ErrInvalidSubjectType  = apperr.Validation("subject_type must be one of driver, pa, vehicle, employee")
	ErrInvalidSubjectID    = apperr.Validation("subject_id is required")
	ErrSubjectKeys         = apperr.Validation("exactly one subject key must be set and match subject_type")
	ErrInvalidStatus       = apperr.Validation("status must be one of missing, pending, valid, expired")
	ErrSubjectMismatch     = apperr.Validation("requirement does not apply to this subject_type")
	ErrRequirementInactive = apperr.Validation("requirement is not active")
	ErrExpiryRequired      = apperr.Validation("expiry_date is required for a valid document of this requirement")
	ErrNumberRequired      = apperr.Validation("certificate_number is required for a valid document of this requirement")
)

type Requirement struct {
	ID                  uint64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name                string      `gorm:"column:name;size:255;not null" json:"name"`
	Code                string      `gorm:"column:code;size:64;not null;index" json:"code"`
	SubjectType         SubjectType `gorm:"column:subject_type;size:16;not null;index" json:"subject_type"`
	RequiresExpiry      bool        `gorm:"column:requires_expiry;not null;default:false" json:"requires_expiry"`
	RequiresUpload      bool        `gorm:"column:requires_upload;not null;default:false" json:"requires_upload"`
	RequiresNumber      bool        `gorm:"column:requires_number;not null;default:false" json:"requires_number"`
	Criticality         Criticality `gorm:"column:criticality;size:16;not null;default:recommended" json:"criticality"`
	DefaultValidityDays *int        `gorm:"column:default_validity_days" json:"default_validity_days"`
	RenewalNoticeDays   *int        `gorm:"column:renewal_notice_days" json:"renewal_notice_days"`
	IsRequired          bool        `gorm:"column:is_required;not null;default:true" json:"is_required"`
	IsActive            bool        `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

func (Requirement) TableName() string { return "document_requirements" }

// UploadedFile is a raw file as stored by the upload collaborator.
type UploadedFile struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NotificationID *uint64   `gorm:"column:notification_id;index" json:"notification_id"`
	FileName       string    `gorm:"column:file_name;size:255;not null" json:"file_name"`
	FilePath       string    `gorm:"column:file_path;type:text;not null" json:"file_path"`
	MimeType       string    `gorm:"column:mime_type;size:128" json:"mime_type"`
	UploadedAt     time.Time `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
}

func (UploadedFile) TableName() string { return "uploaded_files" }

// SubjectDocument records how one subject fulfils one requirement. Exactly
// one of the four subject keys is set and it matches SubjectType.
// SubjectKey mirrors that key so (requirement, subject) can carry a unique
// index; the nullable key columns cannot.
type SubjectDocument struct {
	ID                uint64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RequirementID     uint64       `gorm:"column:requirement_id;not null;uniqueIndex:idx_subject_documents_subject,priority:1" json:"requirement_id"`
	Requirement       *Requirement `gorm:"foreignKey:RequirementID" json:"requirement,omitempty"`
	SubjectType       SubjectType  `gorm:"column:subject_type;size:16;not null;uniqueIndex:idx_subject_documents_subject,priority:2" json:"subject_type"`
	SubjectKey        uint64       `gorm:"column:subject_key;not null;default:0;uniqueIndex:idx_subject_documents_subject,priority:3" json:"-"`
	DriverEmployeeID  *uint64      `gorm:"column:driver_employee_id;index" json:"driver_employee_id"`
	PAEmployeeID      *uint64      `gorm:"column:pa_employee_id;index" json:"pa_employee_id"`
	VehicleID         *uint64      `gorm:"column:vehicle_id;index" json:"vehicle_id"`
	EmployeeID        *uint64      `gorm:"column:employee_id;index" json:"employee_id"`
	Status            Status       `gorm:"column:status;size:16;not null;default:missing" json:"status"`
	CertificateNumber *string      `gorm:"column:certificate_number;size:128" json:"certificate_number"`
	IssueDate         *time.Time   `gorm:"column:issue_date" json:"issue_date"`
	ExpiryDate        *time.Time   `gorm:"column:expiry_date" json:"expiry_date"`
	Notes             *string      `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt         time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Files []UploadedFile `gorm:"many2many:subject_document_files;joinForeignKey:SubjectDocumentID;joinReferences:UploadedFileID" json:"files"`
}

func (SubjectDocument) TableName() string { return "subject_documents" }

// SetSubject points the row at subjectID through the key column of t and
// clears the other three.
func (d *SubjectDocument) SetSubject(t SubjectType, subjectID uint64) error {
	if _, ok := t.Column(); !ok {
		return ErrInvalidSubjectType
	}
	if subjectID == 0 {
		return ErrInvalidSubjectID
	}
	id := subjectID
	d.SubjectType = t
	d.SubjectKey = subjectID
	d.DriverEmployeeID, d.PAEmployeeID, d.VehicleID, d.EmployeeID = nil, nil, nil, nil
	switch t {
	case SubjectDriver:
		d.DriverEmployeeID = &id
	case SubjectPA:
		d.PAEmployeeID = &id
	case SubjectVehicle:
		d.VehicleID = &id
	case SubjectEmployee:
		d.EmployeeID = &id
	}
	return nil
}

// SubjectID returns the id held in the key column for SubjectType and
// whether exactly that one key is set and mirrored in SubjectKey.
func (d SubjectDocument) SubjectID() (uint64, bool) {
	keys := map[SubjectType]*uint64{
		SubjectDriver:   d.DriverEmployeeID,
		SubjectPA:       d.PAEmployeeID,
		SubjectVehicle:  d.VehicleID,
		SubjectEmployee: d.EmployeeID,
	}
	set := 0
	for _, v := range keys {
		if v != nil {
			set++
		}
	}
	own := keys[d.SubjectType]
	if set != 1 || own == nil || *own != d.SubjectKey {
		return 0, false
	}
	return *own, true
}

// EffectiveStatus projects the stored status onto the current date: a
// document awaiting review stays pending, anything whose expiry date is
// before today reads as expired.
func (d SubjectDocument) EffectiveStatus(now time.Time) Status {
	if d.Status == StatusPending {
		return StatusPending
	}
	if d.ExpiryDate != nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if d.ExpiryDate.Before(today) {
			return StatusExpired
		}
	}
	return d.Status
}
