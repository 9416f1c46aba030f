package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized structured logging key for machine-readable event labels.
	FieldEventType = "event_type"
	// FieldJobToken is the standardized structured logging key for conversion job tokens.
	FieldJobToken = "job_token"
	// FieldCommand is the standardized structured logging key for worker command tags.
	FieldCommand = "command"
)

type contextKey int

const jobTokenKey contextKey = iota

// WithJobToken stores the conversion job token on the context so loggers
// derived from it carry the token automatically.
func WithJobToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, jobTokenKey, token)
}

// JobTokenFromContext extracts the job token stored by WithJobToken.
func JobTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, ok := ctx.Value(jobTokenKey).(string)
	return token, ok && token != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 1)
	if token, ok := JobTokenFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobToken, token))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
