// Package ctxutil provides shared context key accessors.
//
// server populates the request ID in its middleware and mcp reads it when
// logging tool failures. Both packages import ctxutil instead of each other,
// since server already imports mcp's server type for transport setup.
package ctxutil

import "context"

type contextKey string

const keyRequestID contextKey = "request_id"

// WithRequestID returns a new context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}
