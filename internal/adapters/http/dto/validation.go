package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation = errors.New("validation failed")

	// ErrBinding covers bodies and query strings that could not be decoded
	// at all, before any field rule ran.
	ErrBinding = errors.New("binding failed")
)

// validate reports fields by their wire names: the json tag for bodies and
// the form tag for query parameters.
var validate = func() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			default:
				return name
			}
		}

		return f.Name
	})

	// notempty also rejects whitespace-only strings, matching the trim in
	// domain.NewQuote.
	if err := v.RegisterValidation("notempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}

	return v
}()

// Validate runs the struct's validate tags.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v, then validates it.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// BindQueryAndValidate decodes the query string into v, then validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// IsValidationError reports whether err carries field-level failures.
func IsValidationError(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// ValidationErrors maps each failing wire field to a readable message.
func ValidationErrors(err error) map[string]string {
	out := map[string]string{}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return out
	}

	for _, fe := range ve {
		out[fe.Field()] = fieldMessage(fe)
	}

	return out
}

func fieldMessage(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required", "notempty":
		return "must not be empty"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
