package verification

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrRequestNotFound   = errors.New("verification request not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidTransition = errors.New("an approved document cannot be re-reviewed")
	ErrNotResubmittable  = errors.New("document is not awaiting resubmission")

	errReasonRequired = errors.New("a rejection reason is required")
)

// InvalidRequirementError is returned when a submission names a requirement
// that does not exist, is inactive, or belongs to another country.
type InvalidRequirementError struct {
	RequirementID string
}

func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("requirement %s is not an active requirement of the selected country", e.RequirementID)
}

// FileTooLargeError is returned when an uploaded file exceeds the size cap
// of the requirement it is submitted for.
type FileTooLargeError struct {
	RequirementID string
	Size          int64
	MaxSize       int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file is %d bytes; requirement %s allows at most %d bytes", e.Size, e.RequirementID, e.MaxSize)
}

// UnsupportedFileTypeError is returned when an uploaded file's extension is
// not in the requirement's allowed set.
type UnsupportedFileTypeError struct {
	RequirementID string
	Ext           string
	Allowed       []string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("file type %q is not allowed for requirement %s (allowed: %s)",
		e.Ext, e.RequirementID, strings.Join(e.Allowed, ", "))
}

// MissingRequiredDocumentError is returned when a submission does not cover
// every required active requirement of the country.
type MissingRequiredDocumentError struct {
	RequirementIDs []string
}

func (e *MissingRequiredDocumentError) Error() string {
	return fmt.Sprintf("missing documents for required requirements: %s", strings.Join(e.RequirementIDs, ", "))
}
