package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyImportID contextKey = "import_id"
	ContextKeyFilename contextKey = "filename"
)

// WithImportID tags the context with the batch-level import run ID.
func WithImportID(ctx context.Context, importID string) context.Context {
	return context.WithValue(ctx, ContextKeyImportID, importID)
}

// ImportIDFromContext extracts the import run ID from context
func ImportIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyImportID).(string); ok {
		return id
	}
	return ""
}

// WithFilename tags the context with the upload being processed.
func WithFilename(ctx context.Context, filename string) context.Context {
	return context.WithValue(ctx, ContextKeyFilename, filename)
}

// FilenameFromContext extracts the upload filename from context
func FilenameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyFilename).(string); ok {
		return name
	}
	return ""
}

// LoggerFrom decorates logger with the import ID and filename carried by ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := ImportIDFromContext(ctx); id != "" {
		logger = logger.With("import_id", id)
	}
	if name := FilenameFromContext(ctx); name != "" {
		logger = logger.With("file", name)
	}
	return logger
}
