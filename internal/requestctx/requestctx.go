// Package requestctx carries the request id through context so services and
// the audit trail can stamp it without depending on the transport layer.
package requestctx

import "context"

// Header is the wire header the request id travels in, inbound and outbound.
const Header = "X-Request-ID"

type ctxKey string

const requestIDKey ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}
