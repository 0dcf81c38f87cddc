package verification

import (
	"github.com/go-playground/validator/v10"

	"github.com/kmutombo/veridoc/core"
)

var (
	reviewDecisionTag  = "reviewdecision"
	reviewDecisionText = "invalid review decision"
)

func init() {
	_ = core.Validate.RegisterValidation(reviewDecisionTag, reviewDecisionValidation)
	core.RegisterCustomTranslation(reviewDecisionTag, reviewDecisionText)
}

func reviewDecisionValidation(fl validator.FieldLevel) bool {
	return ReviewDecision(fl.Field().String()).Valid()
}
