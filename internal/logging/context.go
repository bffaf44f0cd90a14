package logging

import (
	"context"
	"log/slog"

	"reshelf/internal/services"
)

// Shared attribute keys. The console handler and the stream hub both key off
// these, so call sites must not invent spellings of their own.
const (
	FieldComponent     = "component"
	FieldOperationID   = "operation_id"
	FieldSourcePath    = "source_path"
	FieldDirectory     = "directory"
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts the operation identity attrs carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.OperationIDFromContext(ctx); ok {
		fields = append(fields, String(FieldOperationID, id))
	}
	if path, ok := services.SourcePathFromContext(ctx); ok {
		fields = append(fields, String(FieldSourcePath, path))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger bound to whatever identity fields ctx carries.
// A nil logger yields a no-op one, so callers can chain without guards.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(args(fields)...)
}
