package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by logs and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
	StatusKey        = "status"
)

// Headers carrying the ids across HTTP hops.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

type idsKey struct{}

// requestIDs is stored as one context value so both ids travel together.
type requestIDs struct {
	request     string
	correlation string
}

func idsFrom(ctx context.Context) requestIDs {
	if ctx == nil {
		return requestIDs{}
	}
	ids, _ := ctx.Value(idsKey{}).(requestIDs)
	return ids
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// WithCorrelationID sets the correlation id, generating one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.correlation = orNewID(id)
	return context.WithValue(ctx, idsKey{}, ids)
}

// CorrelationIDFromContext returns the correlation id or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).correlation
}

// WithRequestID sets the request id, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.request = orNewID(id)
	return context.WithValue(ctx, idsKey{}, ids)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).request
}

// NewRequestContext scopes ctx to one inbound request. The correlation id is
// taken from the caller, then from ctx, and generated as a last resort.
func NewRequestContext(ctx context.Context, requestID, correlationID string) context.Context {
	ids := idsFrom(ctx)
	ids.request = orNewID(requestID)
	if correlationID != "" {
		ids.correlation = correlationID
	}
	ids.correlation = orNewID(ids.correlation)
	return context.WithValue(ctx, idsKey{}, ids)
}
