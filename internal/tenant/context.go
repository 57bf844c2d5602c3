package tenant

import "context"

// ctxKey is the private context key type for the current tenant id.
type ctxKey struct{}

// WithID returns a context carrying the given tenant id. The value lives
// exactly as long as the request context it is attached to, so it is
// released on completion, error, or cancellation alike and can never leak
// across requests.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext returns the tenant id carried by ctx, if any. A missing id
// means the request runs against the default store.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
