package catalog

import (
	"strings"
	"time"

	"github.com/kmutombo/veridoc/core"
)

// DocumentType is the closed set of document kinds a requirement may ask for.
type DocumentType string

const (
	DocumentTypePassport             DocumentType = "PASSPORT"
	DocumentTypeVisa                 DocumentType = "VISA"
	DocumentTypeAcademicTranscript   DocumentType = "ACADEMIC_TRANSCRIPT"
	DocumentTypeDiplomaCertificate   DocumentType = "DIPLOMA_CERTIFICATE"
	DocumentTypeEnglishTest          DocumentType = "ENGLISH_TEST"
	DocumentTypeFinancialStatement   DocumentType = "FINANCIAL_STATEMENT"
	DocumentTypeRecommendationLetter DocumentType = "RECOMMENDATION_LETTER"
	DocumentTypeStatementOfPurpose   DocumentType = "STATEMENT_OF_PURPOSE"
	DocumentTypeResume               DocumentType = "RESUME"
	DocumentTypeBirthCertificate     DocumentType = "BIRTH_CERTIFICATE"
	DocumentTypePoliceClearance      DocumentType = "POLICE_CLEARANCE"
	DocumentTypeMedicalReport        DocumentType = "MEDICAL_REPORT"
	DocumentTypePhoto                DocumentType = "PHOTO"
	DocumentTypeOther                DocumentType = "OTHER"
)

var DocumentTypes = []DocumentType{
	DocumentTypePassport,
	DocumentTypeVisa,
	DocumentTypeAcademicTranscript,
	DocumentTypeDiplomaCertificate,
	DocumentTypeEnglishTest,
	DocumentTypeFinancialStatement,
	DocumentTypeRecommendationLetter,
	DocumentTypeStatementOfPurpose,
	DocumentTypeResume,
	DocumentTypeBirthCertificate,
	DocumentTypePoliceClearance,
	DocumentTypeMedicalReport,
	DocumentTypePhoto,
	DocumentTypeOther,
}

func (t DocumentType) Valid() bool {
	for _, dt := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Country is a destination a student may apply for.
type Country struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"` // ISO 3166-1 alpha-2, upper-cased
	Name      string    `json:"name"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (c *Country) SetActive(active bool) {
	c.IsActive = &active
}

func (c *Country) Active() bool {
	return c.IsActive != nil && *c.IsActive
}

// Requirement describes one document a student must or may submit for a country.
type Requirement struct {
	ID           string       `json:"id"`
	CountryID    string       `json:"country_id"`
	DocumentType DocumentType `json:"document_type"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Required     bool         `json:"required"`
	MaxFileSize  int64        `json:"max_file_size"` // bytes
	AllowedTypes []string     `json:"allowed_types"` // lowercase file extensions, no dot
	Order        int          `json:"order"`
	IsActive     *bool        `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

func (r *Requirement) SetActive(active bool) {
	r.IsActive = &active
}

func (r *Requirement) Active() bool {
	return r.IsActive != nil && *r.IsActive
}

// AllowsExt reports whether ext (lowercase, no dot) is an allowed file type.
func (r *Requirement) AllowsExt(ext string) bool {
	for _, t := range r.AllowedTypes {
		if t == ext {
			return true
		}
	}
	return false
}

// NewCountry contains information needed to create a new Country.
type NewCountry struct {
	Code string `json:"code" validate:"required,len=2,alpha"`
	Name string `json:"name" validate:"required"`
}

func (nc *NewCountry) Validate() error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	return core.Validate.Struct(nc)
}

// UpdateCountry defines what information may be provided to modify an existing Country.
type UpdateCountry struct {
	Code     string `json:"code" validate:"omitempty,len=2,alpha"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func (uc *UpdateCountry) Validate() error {
	uc.Code = strings.ToUpper(core.CleanString(uc.Code))
	uc.Name = core.CleanString(uc.Name)
	return core.Validate.Struct(uc)
}

// NewRequirement contains information needed to create a new Requirement.
type NewRequirement struct {
	CountryID    string       `json:"country_id" validate:"required,uuid4"`
	DocumentType DocumentType `json:"document_type" validate:"required,doctype"`
	Title        string       `json:"title" validate:"required"`
	Description  string       `json:"description"`
	Required     bool         `json:"required"`
	MaxFileSize  int64        `json:"max_file_size" validate:"required,gt=0"`
	AllowedTypes []string     `json:"allowed_types" validate:"omitempty,min=1,fileexts"`
	Order        int          `json:"order" validate:"gte=0"`
	Active       *bool        `json:"active"`
}

func (nr *NewRequirement) Validate() error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	nr.AllowedTypes = cleanExts(nr.AllowedTypes)
	return core.Validate.Struct(nr)
}

// UpdateRequirement defines what information may be provided to modify an
// existing Requirement. Nil/zero fields are left untouched.
type UpdateRequirement struct {
	DocumentType DocumentType `json:"document_type" validate:"omitempty,doctype"`
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	Required     *bool        `json:"required"`
	MaxFileSize  int64        `json:"max_file_size" validate:"omitempty,gt=0"`
	AllowedTypes []string     `json:"allowed_types" validate:"omitempty,min=1,fileexts"`
	Order        *int         `json:"order"`
	Active       *bool        `json:"active"`
}

func (ur *UpdateRequirement) Validate() error {
	ur.Title = core.CleanString(ur.Title)
	ur.AllowedTypes = cleanExts(ur.AllowedTypes)
	return core.Validate.Struct(ur)
}

// QueryFilter narrows down a Requirement listing.
type QueryFilter struct {
	CountryID  string `query:"country_id"`
	ActiveOnly bool   `query:"active_only"`
}

func cleanExts(exts []string) []string {
	cleaned := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = core.CleanString(ext, true /* lower */)
		if ext != "" {
			cleaned = append(cleaned, ext)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
