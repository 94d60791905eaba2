package obs

import "context"

type ctxKey int

const ctxKeyRoutePattern ctxKey = iota

// WithRoutePattern records the chi route pattern for the request so later
// middleware can label metrics and logs without re-resolving the route.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyRoutePattern, pattern)
}

// RoutePatternFromContext returns the recorded route pattern, or "" when the
// request never passed through RoutePatternMiddleware.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKeyRoutePattern).(string); ok {
		return v
	}
	return ""
}
