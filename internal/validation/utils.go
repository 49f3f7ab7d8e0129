package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/cafe-menu/internal/errs"
)

// CustomValidationError represents a single validation issue for a specific field.
// This is used for validation errors that cannot be expressed via validator tags,
// such as a path parameter that is not a number.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. payload.Bind(c) when payload implements Binder, c.Bind(payload) otherwise.
//  2. payload.Validate() applies validation rules.
//
// A malformed body returns a plain 400 BAD_REQUEST. Parameter binding and
// rule failures return *errs.ValidationError keyed by client-facing field name.
//
// NOTE: payload must be a pointer to a struct.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := bind(c, payload); err != nil {
		var bindingErr *echo.BindingError
		if errors.As(err, &bindingErr) {
			return extractValidationError(payload, CustomValidationErrors{{
				Field:   bindingErr.Field,
				Message: fmt.Sprintf("%s: invalid value", bindingErr.Field),
			}})
		}
		return errs.NewBadRequestError(bindErrorMessage(err), nil)
	}

	if err := payload.Validate(); err != nil {
		return extractValidationError(payload, err)
	}

	return nil
}

func bind(c echo.Context, payload Validatable) error {
	if b, ok := payload.(Binder); ok {
		return b.Bind(c)
	}
	return c.Bind(payload)
}

// bindErrorMessage keeps the client message generic and only names the
// offending field for type mismatches.
func bindErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s (%s)", errs.BadRequest.Message, typeErr.Field)
	}
	return errs.BadRequest.Message
}

// extractValidationError converts validator or custom errors into a ValidationError.
// A field's `message` tag, when present, replaces the generated text.
func extractValidationError(payload any, err error) error {
	var fieldErrors []errs.FieldError

	var customErrors CustomValidationErrors
	if errors.As(err, &customErrors) {
		for _, ce := range customErrors {
			msg := ce.Message
			if tagged := messageForName(payload, ce.Field); tagged != "" {
				msg = tagged
			}
			fieldErrors = append(fieldErrors, errs.FieldError{Field: ce.Field, Error: msg})
		}
		return errs.NewValidationError(fieldErrors...)
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// InvalidValidationError and friends are programming errors, not bad input.
		return err
	}

	for _, fe := range validationErrors {
		msg := messageForStructField(payload, fe.StructNamespace())
		if msg == "" {
			msg = defaultMessage(fe)
		}
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fe.Field(),
			Error: msg,
		})
	}

	return errs.NewValidationError(fieldErrors...)
}

// defaultMessage builds a readable message for fields without a `message` tag.
func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"

	case "notblank":
		return "must not be blank"

	case "min":
		// min tag means:
		// - for strings: minimum length
		// - for numbers: minimum value
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())

	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())

	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())

	case "uuid":
		return "must be a valid UUID"

	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
	}
}

// messageForStructField looks up the `message` tag by the validator's struct
// namespace, e.g. "CreateMenuRequest.Price".
func messageForStructField(payload any, namespace string) string {
	t := structType(payload)
	if t == nil {
		return ""
	}

	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	var field reflect.StructField
	for _, name := range parts {
		f, ok := t.FieldByName(name)
		if !ok {
			return ""
		}
		field = f
		if t = indirect(f.Type); t.Kind() != reflect.Struct {
			break
		}
	}
	return field.Tag.Get(MessageTag)
}

// messageForName looks up the `message` tag of the top-level field whose
// client-facing name is name.
func messageForName(payload any, name string) string {
	t := structType(payload)
	if t == nil {
		return ""
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); fieldName(f) == name {
			return f.Tag.Get(MessageTag)
		}
	}
	return ""
}

func structType(v any) reflect.Type {
	if v == nil {
		return nil
	}
	t := indirect(reflect.TypeOf(v))
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// uuidRegex matches standard UUID format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidUUID checks whether a string matches UUID format.
//
// Note: This validates format only. It does not validate UUID version/variant semantics.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(uuid)
}
