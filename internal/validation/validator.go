// Package validation checks request DTOs against their `validate` struct tags
// and converts failures into *types.AppError values.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/mantonx/seasontracker/internal/types"
)

// Validator validates a value and returns a VALIDATION_ERROR AppError on failure.
type Validator interface {
	Validate(v interface{}) error
}

// StructValidator is the go-playground backed Validator.
type StructValidator struct {
	validate *validator.Validate
}

// New creates a StructValidator with the custom rules registered.
// Field names in errors follow the json tag.
func New() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("validate")
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", notBlank)

	return &StructValidator{validate: v}
}

// Validate implements Validator.
func (s *StructValidator) Validate(v interface{}) error {
	if v == nil {
		return types.NewValidationError("request body is required")
	}

	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return types.NewValidationError("request body is required")
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewValidationError(err.Error())
	}

	fields := make([]types.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, types.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return types.NewValidationError("validation failed", fields...)
}

// DecodeError converts a JSON body decode failure into a VALIDATION_ERROR
// naming the offending field where the decoder reports one.
func DecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return types.NewValidationError("request body is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return types.NewValidationError("request body is invalid", types.FieldError{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("%s must be a valid %s, got %s", field, typeErr.Type, typeErr.Value),
		})
	case errors.As(err, &syntaxErr):
		return types.NewValidationError("request body is invalid", types.FieldError{
			Field:   "body",
			Rule:    "syntax",
			Message: fmt.Sprintf("malformed JSON at offset %d: %s", syntaxErr.Offset, syntaxErr.Error()),
		})
	default:
		return types.NewValidationError("request body is invalid", types.FieldError{
			Field:   "body",
			Rule:    "decode",
			Message: err.Error(),
		})
	}
}

// WithDecodeCause replaces the validation failure reported for an unreadable
// body with the reason in decodeErr. Any other error is returned unchanged,
// so authorization failures still win.
func WithDecodeCause(err, decodeErr error) error {
	if decodeErr == nil || !types.IsCode(err, types.ErrorCodeValidation) {
		return err
	}
	return DecodeError(decodeErr)
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimFunc(field.String(), unicode.IsSpace) != ""
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
