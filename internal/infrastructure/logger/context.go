package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// FlatNumberKey is the context key for flat number
	FlatNumberKey contextKey = "flat_number"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String(FieldRequestID, requestID))
	return WithContext(ctx, enriched), enriched
}

// WithFlatNumber adds the resident's flat to context and returns enriched logger
func WithFlatNumber(ctx context.Context, logger *zap.Logger, flatNumber string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, FlatNumberKey, flatNumber)
	enriched := logger.With(FlatNumber(flatNumber))
	return WithContext(ctx, enriched), enriched
}

// WithUserID adds user ID to context and returns enriched logger
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	enriched := logger.With(UserID(userID))
	return WithContext(ctx, enriched), enriched
}

// WithTraceContext stamps trace_id and span_id of the active span on the
// context logger. Without a valid span ctx is returned unchanged.
func WithTraceContext(ctx context.Context) context.Context {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ctx
	}
	return WithContext(ctx, FromContext(ctx).With(
		zap.String(FieldTraceID, spanCtx.TraceID().String()),
		zap.String(FieldSpanID, spanCtx.SpanID().String()),
	))
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetFlatNumber retrieves flat number from context
func GetFlatNumber(ctx context.Context) string {
	if flatNumber, ok := ctx.Value(FlatNumberKey).(string); ok {
		return flatNumber
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
