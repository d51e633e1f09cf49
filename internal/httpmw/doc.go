// Package httpmw provides HTTP middleware for the public gateway server.
//
// Middleware is composed in a fixed order in httpserver.NewHandler: security
// headers outermost, then panic recovery, request ID, client IP extraction,
// rate limiting, path normalization, and the https scheme redirect, with
// tracing, metrics, structured logging, and body limits inside those,
// directly around the route table. A scheme redirect therefore
// short-circuits before any span, metric, or access-log record exists; its
// own counter accounts for it. Security headers and the rate limit cover
// every response, redirects and unmatched paths included.
//
// Each middleware is an independent function that can be tested, reordered,
// or removed individually. User-supplied data (query params, user-agent,
// headers) is intentionally excluded from logs.
package httpmw
