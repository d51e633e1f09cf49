// Package httpserver assembles the public listener: the middleware chain
// around the routing table, server timeouts, and lifecycle.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/redmirror/redmirror/internal/httpmw"
	"github.com/redmirror/redmirror/internal/log"
	"github.com/redmirror/redmirror/internal/xerrors"
)

const defaultMaxBody = 4 << 10

// NewHandler builds the public handler. main() owns the *http.Server so it
// can coordinate graceful shutdown with the readiness gate.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	routes := opts.Routes
	if routes == nil {
		routes = http.NotFoundHandler()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	// Wrapped innermost first; the chain as requests see it reads bottom-up.
	var h http.Handler = routes

	// Body cap ahead of the routing table. Only the settings form posts.
	h = httpmw.MaxBody(maxBody)(h)

	// One record per request, keyed by the matched route pattern.
	h = httpmw.AccessLog()(h)

	// Rename the active span to the matched pattern once dispatch finishes.
	h = httpmw.AnnotateHTTPRoute(h)

	// Compress text responses (HTML/CSS/JS/JSON/SVG).
	h = middleware.Compress(5,
		"text/html",
		"text/css",
		"application/javascript",
		"text/javascript",
		"application/json",
		"image/svg+xml",
		"image/x-icon",
	)(h)

	// Request-scoped logging (inner so it sees trace_id, client address, etc).
	h = httpmw.WithLogger(logger)(h)

	// Prometheus instrumentation.
	if opts.MetricsMW != nil {
		h = opts.MetricsMW(h)
	}

	// Trace-id headers on any response with a recording trace.
	h = httpmw.TraceResponseHeaders("X-Trace-Id", "X-Span-Id")(h)

	h = otelhttp.NewHandler(
		h,
		"http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTrace(r.URL.Path)
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			// AnnotateHTTPRoute renames the span to the route pattern later
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithPublicEndpointFn(func(r *http.Request) bool { return true }),
	)

	// Scheme enforcement. Inside NormalizePath so the Location header
	// carries the canonical path, outside the tracer since a redirect never
	// reaches a handler.
	if opts.RedirectHTTPS {
		h = httpmw.RedirectHTTPS(opts.OnHTTPSRedirect)(h)
	}

	// Rewrite to the canonical slash form before anything reads the path.
	h = httpmw.NormalizePath(h)

	// Rate limiting, after client IP resolution so it keys on the real peer.
	if opts.RateLimitMW != nil {
		h = opts.RateLimitMW(h)
	}

	// Client IP resolution; also strips forwarded headers from untrusted
	// peers before the scheme check below it can read them.
	h = httpmw.ClientIP(httpmw.ClientIPOptions{TrustedHops: opts.TrustedHops})(h)

	// Request ID outer so everything downstream sees it.
	h = httpmw.RequestID("X-Request-Id")(h)

	// Panic recovery: log and serve a 500.
	if opts.UseRecoverMW {
		h = httpmw.Recover(logger, opts.OnPanic)(h)
	}

	// Security headers outermost so they ride on every response.
	h = httpmw.SecurityHeaders(h)

	return h
}

// shouldTrace decides which requests get spans. Static assets are noise,
// but anything under /proxy/ keeps its span even though the target ends in
// a media extension: the upstream fetch is the I/O worth watching.
func shouldTrace(p string) bool {
	if strings.HasPrefix(p, "/proxy/") {
		return true
	}
	ext := strings.ToLower(path.Ext(strings.TrimSuffix(p, "/")))
	switch ext {
	case ".css", ".js", ".json", ".png", ".jpg", ".jpeg", ".webp", ".svg", ".ico", ".txt", ".woff", ".woff2", ".map":
		return false
	}
	return true
}

// Server timeout defaults, shared with opshttp. The write timeout leaves
// room for proxied media streaming to slow clients.
const (
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20 // 1 MB
)

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		MaxHeaderBytes:    DefaultMaxHeaderBytes,
	}
}

// Start brings up the public server.
// Returns stop(ctx) for graceful shutdown.
func Start(ctx context.Context, opts Options) (func(context.Context) error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	addr := opts.Address
	if addr == "" {
		addr = ":8080"
	}

	handler := NewHandler(opts)
	srv := NewServer(addr, handler)

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp4", addr)
	if err != nil {
		return nil, xerrors.EnsureTrace(err)
	}

	go func() {
		logger.Info(ctx, "http server listening", "addr", addr)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, err, "http server error")
		}
	}()

	var once sync.Once
	stop := func(sctx context.Context) (retErr error) {
		once.Do(func() {
			logger.Info(sctx, "http server shutting down")
			c, cancel := context.WithTimeout(sctx, 5*time.Second)
			defer cancel()
			retErr = srv.Shutdown(c)
		})
		return retErr
	}
	return stop, nil
}
