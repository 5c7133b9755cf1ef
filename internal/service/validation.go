package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

var (
	contractNumberPattern = regexp.MustCompile(`^\d{12}$`)
	studentIDPattern      = regexp.MustCompile(`^\d{7}$`)
)

// NewValidator returns a validator with the portal's custom tags registered:
// contract_number (12 digits) and student_id (7 digits).
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("contract_number", func(fl validator.FieldLevel) bool {
		return contractNumberPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("student_id", func(fl validator.FieldLevel) bool {
		return studentIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

var fieldMessages = map[string]string{
	"contract_number": "must be exactly 12 digits",
	"student_id":      "must be exactly 7 digits",
	"required":        "is required",
	"email":           "must be a valid email",
}

// validationError converts validator output into a 400 with a readable message.
func validationError(err error, fallback string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
	}
	fe := verrs[0]
	msg, ok := fieldMessages[fe.Tag()]
	if !ok {
		switch fe.Tag() {
		case "min":
			msg = fmt.Sprintf("must be at least %s characters", fe.Param())
		case "max":
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		case "oneof":
			msg = fmt.Sprintf("must be one of %s", fe.Param())
		default:
			msg = "is invalid"
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s %s", lowerFirst(fe.Field()), msg))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
