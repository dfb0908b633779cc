package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ErrMalformedBody is returned when the request body is not valid JSON
var ErrMalformedBody = errors.New("Invalid request body")

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report json field names so messages match what the client sent
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", validators.NotBlank)
}

// ValidateRequest validates a struct against its validation tags
func ValidateRequest(v any) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to one message per field
func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errs
}

func getErrorMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required", "notblank":
		return field + " can't be blank."
	case "min":
		return fmt.Sprintf("%s is too short (minimum %s).", field, e.Param())
	case "max":
		return fmt.Sprintf("%s is too long (maximum %s).", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s.", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", field, e.Param())
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format."
	case "eqfield":
		return fmt.Sprintf("%s must match %s.", field, e.Param())
	default:
		return field + " is invalid."
	}
}
