package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends each record to the console handler and the rolling file
// handler. Each side keeps its own level and format.
type teeHandler struct {
	console slog.Handler
	file    slog.Handler
}

func newTeeHandler(console, file slog.Handler) *teeHandler {
	return &teeHandler{console: console, file: file}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	var errs []error

	if h.console.Enabled(ctx, r.Level) {
		errs = append(errs, h.console.Handle(ctx, r.Clone()))
	}

	if h.file.Enabled(ctx, r.Level) {
		errs = append(errs, h.file.Handle(ctx, r.Clone()))
	}

	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newTeeHandler(h.console.WithAttrs(attrs), h.file.WithAttrs(attrs))
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return newTeeHandler(h.console.WithGroup(name), h.file.WithGroup(name))
}
