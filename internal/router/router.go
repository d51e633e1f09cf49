// Package router matches request paths against an ordered route table.
//
// Unlike trie-based muxes, overlapping routes resolve strictly by
// registration order: the first route whose pattern and method match wins,
// with no backtracking and no specificity scoring. Handlers that need an
// earlier look at overlapping shapes simply register first. The table is
// built once at startup and is immutable afterwards, so it is shared across
// request goroutines without locks.
package router

import (
	"fmt"
	"net/http"
)

type route struct {
	method  string
	pat     *pattern
	handler http.Handler
}

type Mux struct {
	routes   []route
	notFound http.Handler
}

func New() *Mux {
	return &Mux{notFound: http.NotFoundHandler()}
}

// Handle appends a route. Registration happens once at startup; a malformed
// pattern is a programming error, so it panics.
func (m *Mux) Handle(method, pat string, h http.Handler) {
	if h == nil {
		panic(fmt.Sprintf("router: nil handler for %s %s", method, pat))
	}
	p, err := parsePattern(pat)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}
	m.routes = append(m.routes, route{method: method, pat: p, handler: h})
}

func (m *Mux) HandleFunc(method, pat string, h http.HandlerFunc) {
	m.Handle(method, pat, h)
}

func (m *Mux) Get(pat string, h http.Handler)  { m.Handle(http.MethodGet, pat, h) }
func (m *Mux) Post(pat string, h http.Handler) { m.Handle(http.MethodPost, pat, h) }

// NotFound replaces the fallback handler invoked when no route matches.
func (m *Mux) NotFound(h http.Handler) {
	if h != nil {
		m.notFound = h
	}
}

// Match reports the handler that would serve method+path, along with the
// extracted params and the registered pattern.
func (m *Mux) Match(method, path string) (http.Handler, Params, string, bool) {
	segs := splitPath(path)
	for _, rt := range m.routes {
		if !methodMatch(method, rt.method) {
			continue
		}
		if !rt.pat.match(segs) {
			continue
		}
		var params Params
		if rt.pat.captures > 0 {
			params = make(Params, rt.pat.captures)
			rt.pat.extract(segs, params)
		}
		return rt.handler, params, rt.pat.raw, true
	}
	return nil, nil, "", false
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := RouteContext(r.Context())
	if rc == nil {
		ctx, fresh := NewRouteContext(r.Context())
		r = r.WithContext(ctx)
		rc = fresh
	}

	h, params, pat, ok := m.Match(r.Method, r.URL.Path)
	if !ok {
		m.notFound.ServeHTTP(w, r)
		return
	}
	rc.set(pat, params)
	h.ServeHTTP(w, r)
}

// HEAD falls through to GET handlers; the server elides the body.
func methodMatch(reqMethod, routeMethod string) bool {
	return reqMethod == routeMethod ||
		(reqMethod == http.MethodHead && routeMethod == http.MethodGet)
}

// splitPath breaks a path into segments, ignoring the leading slash and the
// trailing empty segment the normalized form produces.
func splitPath(p string) []string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	if p == "" {
		return nil
	}
	segs := make([]string, 0, 8)
	for {
		i := 0
		for i < len(p) && p[i] != '/' {
			i++
		}
		segs = append(segs, p[:i])
		if i == len(p) {
			return segs
		}
		p = p[i+1:]
	}
}
