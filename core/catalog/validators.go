package catalog

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/kmutombo/veridoc/core"
)

var (
	docTypeTag  = "doctype"
	docTypeText = "invalid document type"

	fileExtsTag   = "fileexts"
	fileExtsText  = "file extensions must be lowercase alphanumeric, without a dot"
	fileExtsRegex = regexp.MustCompile(`^[a-z0-9]+$`)
)

func init() {
	_ = core.Validate.RegisterValidation(docTypeTag, docTypeValidation)
	core.RegisterCustomTranslation(docTypeTag, docTypeText)

	_ = core.Validate.RegisterValidation(fileExtsTag, fileExtsValidation)
	core.RegisterCustomTranslation(fileExtsTag, fileExtsText)
}

// docTypeValidation checks that the value is a member of DocumentTypes.
func docTypeValidation(fl validator.FieldLevel) bool {
	return DocumentType(fl.Field().String()).Valid()
}

// fileExtsValidation checks every entry of an extension list ("pdf", "jpg", ...).
func fileExtsValidation(fl validator.FieldLevel) bool {
	exts, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, ext := range exts {
		if !fileExtsRegex.MatchString(ext) {
			return false
		}
	}
	return true
}
