package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return slices.Contains(ContactSubjects, fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	return v
}

// FieldError names one invalid field and why.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError lists every invalid field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate normalises s and checks it against its field rules.
func Validate(s Submission) error {
	s.Normalize()
	return checkStruct(s)
}

// ValidateStruct checks any tagged request struct, e.g. a reply body.
func ValidateStruct(v any) error {
	return checkStruct(v)
}

func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(validationErrors))}
	for _, fe := range validationErrors {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Reason: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "subject":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(ContactSubjects, ", "))
	case "bcryptmax":
		return fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes)
	case "numeric":
		return fmt.Sprintf("%s must be a number", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
