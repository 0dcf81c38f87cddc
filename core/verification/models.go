package verification

import (
	"time"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
)

// Status is the derived lifecycle state of a verification request.
// It is never set directly by a client; it is recomputed from the
// request's documents after every mutation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusInReview  Status = "IN_REVIEW"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
)

// DocumentStatus is the review state of a single submitted document.
type DocumentStatus string

const (
	DocumentStatusPending              DocumentStatus = "PENDING"
	DocumentStatusApproved             DocumentStatus = "APPROVED"
	DocumentStatusRejected             DocumentStatus = "REJECTED"
	DocumentStatusResubmissionRequired DocumentStatus = "RESUBMISSION_REQUIRED"
)

// ReviewDecision is the verdict a staff member records on a document.
type ReviewDecision string

const (
	DecisionApproved             ReviewDecision = "APPROVED"
	DecisionRejected             ReviewDecision = "REJECTED"
	DecisionResubmissionRequired ReviewDecision = "RESUBMISSION_REQUIRED"
)

var ReviewDecisions = []ReviewDecision{
	DecisionApproved,
	DecisionRejected,
	DecisionResubmissionRequired,
}

func (d ReviewDecision) Valid() bool {
	for _, rd := range ReviewDecisions {
		if d == rd {
			return true
		}
	}
	return false
}

type (
	// Request is a student's verification dossier for one destination country.
	Request struct {
		ID           string    `json:"id"`
		StudentID    string    `json:"student_id"`
		CountryID    string    `json:"country_id"`
		Status       Status    `json:"status"`
		AssignedToID string    `json:"assigned_to_id,omitempty"`
		ReviewedByID string    `json:"reviewed_by_id,omitempty"`
		ReviewedAt   time.Time `json:"reviewed_at,omitempty"`
		ReviewNotes  string    `json:"review_notes,omitempty"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC

		Documents []Document `json:"documents,omitempty"`
	}

	// Document is one uploaded file tied to a catalog requirement. A resubmitted
	// document points at the file it replaces via ParentDocumentID; the full
	// chain is kept for audit.
	Document struct {
		ID               string         `json:"id"`
		RequestID        string         `json:"request_id"`
		RequirementID    string         `json:"requirement_id"`
		StudentID        string         `json:"student_id"`
		FileName         string         `json:"file_name"`
		OriginalName     string         `json:"original_name"`
		FileURL          string         `json:"file_url"`
		FileSize         int64          `json:"file_size"` // bytes
		MimeType         string         `json:"mime_type"`
		Status           DocumentStatus `json:"status"`
		ReviewedByID     string         `json:"reviewed_by_id,omitempty"`
		ReviewedAt       time.Time      `json:"reviewed_at,omitempty"`
		ReviewNotes      string         `json:"review_notes,omitempty"`
		RejectionReason  string         `json:"rejection_reason,omitempty"`
		ParentDocumentID string         `json:"parent_document_id,omitempty"`
		CreatedAt        time.Time      `json:"created_at"` // UTC
		UpdatedAt        time.Time      `json:"updated_at"` // UTC
	}
)

// Reviewed reports whether a staff member has looked at this document.
func (d *Document) Reviewed() bool {
	return d.Status != DocumentStatusPending || d.ReviewedByID != ""
}

// Resubmittable reports whether this document may be replaced by a new upload.
func (d *Document) Resubmittable() bool {
	return d.Status == DocumentStatusRejected || d.Status == DocumentStatusResubmissionRequired
}

// Terminal reports whether the request is in a state that forbids resubmission.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

type (
	// FileMetadata describes an already-uploaded file. Uploads themselves go
	// straight to object storage; the API only ever sees their metadata.
	FileMetadata struct {
		FileName     string `json:"file_name" validate:"required"`
		OriginalName string `json:"original_name" validate:"required"`
		FileURL      string `json:"file_url" validate:"required,url"`
		FileSize     int64  `json:"file_size" validate:"required,gt=0"`
		MimeType     string `json:"mime_type" validate:"required"`
	}

	// NewDocument contains information needed to attach one document to a new request.
	NewDocument struct {
		RequirementID string       `json:"requirement_id" validate:"required,uuid4"`
		File          FileMetadata `json:"file"`
	}

	// NewRequest contains information needed to open a verification request.
	NewRequest struct {
		CountryID string        `json:"country_id" validate:"required,uuid4"`
		Documents []NewDocument `json:"documents" validate:"required,min=1,dive"`
	}

	// ReviewDocument is a staff verdict on one document.
	ReviewDocument struct {
		Decision        ReviewDecision `json:"decision" validate:"required,reviewdecision"`
		Notes           string         `json:"notes"`
		RejectionReason string         `json:"rejection_reason"`
	}

	// ResubmitDocument replaces a rejected document with a fresh upload.
	ResubmitDocument struct {
		ParentDocumentID string       `json:"parent_document_id" validate:"required,uuid4"`
		File             FileMetadata `json:"file"`
	}

	// QueryFilter narrows down a Request listing. Fields are ANDed.
	QueryFilter struct {
		StudentID    string `query:"student_id"`
		CountryID    string `query:"country_id"`
		Status       Status `query:"status"`
		AssignedToID string `query:"assigned_to_id"`
	}
)

func (nr *NewRequest) Validate() error {
	for i := range nr.Documents {
		nr.Documents[i].File.clean()
	}
	return core.Validate.Struct(nr)
}

func (rd *ReviewDocument) Validate() error {
	rd.Notes = core.CleanString(rd.Notes)
	rd.RejectionReason = core.CleanString(rd.RejectionReason)
	if err := core.Validate.Struct(rd); err != nil {
		return err
	}
	if rd.Decision != DecisionApproved && rd.RejectionReason == "" {
		return core.NewValidationError(errReasonRequired,
			core.FieldError{Field: "rejection_reason", Error: errReasonRequired.Error()})
	}
	return nil
}

func (rs *ResubmitDocument) Validate() error {
	rs.File.clean()
	return core.Validate.Struct(rs)
}

func (f *FileMetadata) clean() {
	f.FileName = core.CleanString(f.FileName)
	f.OriginalName = core.CleanString(f.OriginalName)
	f.FileURL = core.CleanString(f.FileURL)
	f.MimeType = core.CleanString(f.MimeType, true /* lower */)
}

// CheckAgainst validates the file metadata against the catalog requirement it
// is submitted for. It returns a typed error describing the first violation.
func (f *FileMetadata) CheckAgainst(req catalog.Requirement) error {
	if f.FileSize > req.MaxFileSize {
		return &FileTooLargeError{RequirementID: req.ID, Size: f.FileSize, MaxSize: req.MaxFileSize}
	}
	ext := core.FileExt(f.OriginalName)
	if !req.AllowsExt(ext) {
		return &UnsupportedFileTypeError{RequirementID: req.ID, Ext: ext, Allowed: req.AllowedTypes}
	}
	return nil
}
