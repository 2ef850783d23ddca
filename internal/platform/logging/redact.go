package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// secretFields never reach a log line, whether logged as an attribute or as
// a struct field. api_token is the remote bearer token from configuration.
var secretFields = []string{
	"api_token", "apiToken", "APIToken",
	"authorization", "Authorization",
	"token", "password", "secret",
}

// bearerValue catches a bearer header value logged under any other name.
var bearerValue = regexp.MustCompile(`(?i)^bearer\s+\S+$`)

// RedactOptions returns the masq options every logger built here applies.
// Struct fields tagged `masq:"secret"` are redacted as well.
func RedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(secretFields)+2)
	for _, name := range secretFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithTag("secret"),
		masq.WithRegex(bearerValue),
	)
}

// NewReplaceAttr returns a slog ReplaceAttr hook applying RedactOptions
// plus extra.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), extra...)...)
}
