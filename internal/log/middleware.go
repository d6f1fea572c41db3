package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger from the request context, falling back to
// the process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default()}
}

// StructuredLogger logs dashboard events with the standard field set.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs request completion at a level chosen by status code.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().WithHTTPResponse(statusCode, durationMs)
	fields[FieldMethod] = r.Method
	fields[FieldPath] = r.URL.Path
	fields[FieldQuery] = r.URL.RawQuery
	fields[FieldClientIP] = clientIP

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogFilterEvent logs the state a session reached after an interaction.
func (sl *StructuredLogger) LogFilterEvent(ctx context.Context, sessionID, event string, selected []string, selectAll bool, rows int) {
	fields := NewFields().
		WithSession(sessionID).
		WithFilterState(event, selected, selectAll, rows).
		WithOperation(OpFilter)
	sl.logger.DebugContext(ctx, "Filter event applied", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
