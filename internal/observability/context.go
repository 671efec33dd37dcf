package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDBytes = 16 // OpenTelemetry trace ID size in bytes
	spanIDBytes  = 8  // OpenTelemetry span ID size in bytes
)

// Context keys double as the log field names.
const (
	TraceIDKey   contextKey = "trace_id"
	SpanIDKey    contextKey = "span_id"
	RequestIDKey contextKey = "request_id"
	SessionKey   contextKey = "session_id"
	ProviderKey  contextKey = "provider"
	ModelKey     contextKey = "model"
)

// correlationKeys are attached to every context logger, in this order.
var correlationKeys = []contextKey{TraceIDKey, SpanIDKey, RequestIDKey, SessionKey, ProviderKey, ModelKey}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func value(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithTraceID injects trace ID into context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withValue(ctx, TraceIDKey, traceID)
}

// WithSpanID injects span ID into context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return withValue(ctx, SpanIDKey, spanID)
}

// WithRequestID injects request ID into context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withValue(ctx, RequestIDKey, requestID)
}

// WithSessionID injects the comparison session ID into context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return withValue(ctx, SessionKey, sessionID)
}

// WithProvider injects the provider name into context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return withValue(ctx, ProviderKey, provider)
}

// WithModel injects the model id into context.
func WithModel(ctx context.Context, model string) context.Context {
	return withValue(ctx, ModelKey, model)
}

// GetTraceID extracts trace ID from context.
func GetTraceID(ctx context.Context) string { return value(ctx, TraceIDKey) }

// GetSpanID extracts span ID from context.
func GetSpanID(ctx context.Context) string { return value(ctx, SpanIDKey) }

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string { return value(ctx, RequestIDKey) }

// GetSessionID extracts the session ID from context.
func GetSessionID(ctx context.Context) string { return value(ctx, SessionKey) }

// GetProvider extracts the provider name from context.
func GetProvider(ctx context.Context) string { return value(ctx, ProviderKey) }

// GetModel extracts the model id from context.
func GetModel(ctx context.Context) string { return value(ctx, ModelKey) }

// GenerateTraceID generates an OpenTelemetry-compatible trace ID (32 hex chars).
func GenerateTraceID() string {
	return randomHex(traceIDBytes)
}

// GenerateSpanID generates an OpenTelemetry-compatible span ID (16 hex chars).
func GenerateSpanID() string {
	return randomHex(spanIDBytes)
}

// GenerateRequestID generates a unique request identifier (UUID).
func GenerateRequestID() string {
	return uuid.NewString()
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		id := uuid.New()
		buf = append(id[:], id[:]...)[:n]
	}
	return hex.EncodeToString(buf)
}
