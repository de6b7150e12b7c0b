package services

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	operationKey     contextKey = "operation"
	serverNameKey    contextKey = "server_name"
	correlationIDKey contextKey = "correlation_id"
)

// NewCorrelationID returns a fresh identifier used to tie together all log
// lines emitted during one invocation.
func NewCorrelationID() string {
	return uuid.New().String()
}

// WithOperation annotates context with the running operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithServerName annotates context with the target server's display name.
func WithServerName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, serverNameKey, name)
}

// ServerNameFromContext returns the target server name if present.
func ServerNameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(serverNameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCorrelationID annotates context with a correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation identifier if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(correlationIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
