package router

import "context"

// Params maps capture names to the path segments they matched.
type Params map[string]string

// Context carries the match result for one request. The mux mutates the
// holder in place rather than re-wrapping the request context, so middleware
// that injected it before dispatch can read the matched pattern after the
// handler returns.
type Context struct {
	pattern string
	params  Params
}

func (c *Context) set(pattern string, params Params) {
	c.pattern = pattern
	c.params = params
}

// Pattern returns the registered pattern that matched, or "" before dispatch
// and for unmatched requests.
func (c *Context) Pattern() string {
	if c == nil {
		return ""
	}
	return c.pattern
}

func (c *Context) Param(name string) string {
	if c == nil {
		return ""
	}
	return c.params[name]
}

func (c *Context) Params() Params {
	if c == nil {
		return nil
	}
	return c.params
}

type ctxKey struct{}

// NewRouteContext returns a fresh holder and a context carrying it.
func NewRouteContext(ctx context.Context) (context.Context, *Context) {
	rc := &Context{}
	return context.WithValue(ctx, ctxKey{}, rc), rc
}

// RouteContext returns the holder in ctx, or nil.
func RouteContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(ctxKey{}).(*Context)
	return rc
}

// Param returns the named capture from the matched route, or "".
func Param(ctx context.Context, name string) string {
	return RouteContext(ctx).Param(name)
}

// Pattern returns the matched route pattern, or "".
func Pattern(ctx context.Context) string {
	return RouteContext(ctx).Pattern()
}
