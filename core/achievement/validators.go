package achievement

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/sifa/core"
)

const certYearMin = 2000

var (
	academicYearTag   = "academicyear"
	academicYearText  = "academic year must be in the form YYYY-YYYY, e.g. 2023-2024"
	academicYearRegex = regexp.MustCompile(`^\d{4}-\d{4}$`)

	certYearTag  = "certyear"
	certYearText = "certificate year must be between 2000 and the current year"

	reviewStatusTag  = "reviewstatus"
	reviewStatusText = "status must be either Approved or Rejected"
)

func init() {
	_ = core.Validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(academicYearTag, academicYearText)

	_ = core.Validate.RegisterValidation(certYearTag, certYearValidation)
	core.RegisterCustomTranslation(certYearTag, certYearText)

	_ = core.Validate.RegisterValidation(reviewStatusTag, reviewStatusValidation)
	core.RegisterCustomTranslation(reviewStatusTag, reviewStatusText)
}

// academicYearValidation checks the "YYYY-YYYY" academic year format.
func academicYearValidation(fl validator.FieldLevel) bool {
	return academicYearRegex.MatchString(fl.Field().String())
}

// certYearValidation bounds the certificate year to [2000, current year].
func certYearValidation(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return year >= certYearMin && year <= time.Now().Year()
}

// reviewStatusValidation only allows terminal review statuses.
func reviewStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range ReviewStatuses {
		if s == status {
			return true
		}
	}
	return false
}
