// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("percentage", validatePercentage)
	validate.RegisterValidation("period", validatePeriod)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validatePercentage accepts numeric fields in [0, 100]. Works on float64
// request fields before they are converted to decimals.
func validatePercentage(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	return value >= 0 && value <= 100
}

// validatePeriod accepts calendar periods in YYYY-MM form.
func validatePeriod(fl validator.FieldLevel) bool {
	return periodPattern.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "percentage":
		return e.Field() + " must be between 0 and 100"
	case "period":
		return e.Field() + " must be a calendar period in YYYY-MM form"
	default:
		return e.Field() + " is invalid"
	}
}
