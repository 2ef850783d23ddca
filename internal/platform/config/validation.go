package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf keys so messages name the
// setting as it is written in YAML or derived from APP_* variables.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	v.RegisterStructValidation(validateRetry, RetryConfig{})
	v.RegisterStructValidation(validateLimits, Config{})

	return v
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

func validateRetry(sl validator.StructLevel) {
	r := sl.Current().Interface().(RetryConfig) //nolint:forcetypeassert // registered for RetryConfig

	if r.MaxInterval < r.InitialInterval {
		sl.ReportError(r.MaxInterval, "max_interval", "MaxInterval", "gtefield", "initial_interval")
	}
}

// validateLimits keeps the HTTP body limit from cutting off an import the
// import limit would still accept.
func validateLimits(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config) //nolint:forcetypeassert // registered for Config

	if c.Server.MaxRequestSize < c.Export.MaxImportBytes {
		sl.ReportError(c.Server.MaxRequestSize, "server.max_request_size", "MaxRequestSize",
			"gtefield", "export.max_import_bytes")
	}
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

func formatFieldError(e validator.FieldError) string {
	key := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		field, value, _ := strings.Cut(e.Param(), " ")
		return fmt.Sprintf("%s is required when %s is %s", key, strings.ToLower(field), value)
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, e.Param())
	case "url":
		return key + " must be an absolute URL"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", key, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", key, e.Param())
	default:
		return fmt.Sprintf("%s failed %q check", key, e.Tag())
	}
}

// formatFieldPath drops the root struct from a namespace:
// "Config.client.retry.max_attempts" becomes "client.retry.max_attempts".
func formatFieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return strings.ToLower(namespace)
	}

	return rest
}
