package obs

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5"
)

type routeInfoKey struct{}

// RouteInfo exposes what the router matched to middleware mounted ahead of it.
// chi fills its route context while the request is served, so the getters read
// it on demand and only return values once next has run.
type RouteInfo struct {
	pattern string
	rc      *chi.Context
}

// WithRoutePattern pins an explicit route pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routeInfoKey{}, &RouteInfo{pattern: pattern, rc: chi.RouteContext(ctx)})
}

func withRouteInfo(ctx context.Context) context.Context {
	rc := chi.RouteContext(ctx)
	if rc == nil {
		return ctx
	}
	return context.WithValue(ctx, routeInfoKey{}, &RouteInfo{rc: rc})
}

// RouteInfoFromContext returns the attached route info, or nil.
func RouteInfoFromContext(ctx context.Context) *RouteInfo {
	if ctx == nil {
		return nil
	}
	ri, _ := ctx.Value(routeInfoKey{}).(*RouteInfo)
	return ri
}

// Pattern returns the pinned or matched route pattern.
func (ri *RouteInfo) Pattern() string {
	if ri == nil {
		return ""
	}
	if ri.pattern != "" {
		return ri.pattern
	}
	if ri.rc != nil {
		return ri.rc.RoutePattern()
	}
	return ""
}

// DocumentID returns the {id} URL parameter of document and template routes.
func (ri *RouteInfo) DocumentID() string {
	if ri == nil || ri.rc == nil {
		return ""
	}
	return strings.TrimSpace(ri.rc.URLParam("id"))
}

// RoutePatternFromContext is shorthand for RouteInfoFromContext(ctx).Pattern().
func RoutePatternFromContext(ctx context.Context) string {
	return RouteInfoFromContext(ctx).Pattern()
}
