// Package validation contains the logic for validating
// request data.
//
// It uses the `validator` library to enforce rules (like
// required fields or minimum prices) defined in struct tags
// and extracts validation errors into a format the client can
// understand
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
// - Define a request struct with validator tags (`validate:"required,notblank"`)
// - Optionally add a `message` tag: the text reported for that field whatever rule failed
// - Implement Validate() error that calls validation.Struct(req)
type Validatable interface {
	Validate() error
}

// Binder is implemented by payloads that bind themselves instead of relying
// on echo's DefaultBinder (path and query parameters, defaults).
type Binder interface {
	Bind(c echo.Context) error
}

// MessageTag names the struct tag holding a field's client-facing message.
const MessageTag = "message"

// validate is shared by every request type. *validator.Validate is safe for
// concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by the name the client sent them under.
	v.RegisterTagNameFunc(fieldName)

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// fieldName resolves the client-facing name of a struct field from its
// json, param or query tag, falling back to the Go name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "param", "query"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
