package domain

import "context"

// ContextKey is the type for context keys
type ContextKey string

const (
	// TenantIDKey is the context key for the calling tenant
	TenantIDKey ContextKey = "tenant_id"
	// RequestIDKey is the context key for request IDs
	RequestIDKey ContextKey = "request_id"
)

// WithTenant stores the tenant id on ctx.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// TenantFromContext returns the tenant id stored by WithTenant.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok && tenantID != ""
}

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}
