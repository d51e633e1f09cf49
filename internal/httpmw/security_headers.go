package httpmw

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// The gateway serves anonymized third-party content, so the policy is
// stricter than a typical site: no referrer leaks to upstream hosts, no
// framing, and resources restricted to the gateway's own origin.
var securityHeaders = [...][2]string{
	{"Referrer-Policy", "no-referrer"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; manifest-src 'self'; media-src 'self'; style-src 'self' 'unsafe-inline'; base-uri 'none'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none';"},
}

// SecurityHeaders stamps the fixed header set on every response that passes
// through it: handler output, redirects, the not-found responder, and error
// responses alike. Headers are applied again when the response header block
// is written, so an inner handler cannot override them.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applySecurityHeaders(w.Header())
		next.ServeHTTP(&securityWriter{ResponseWriter: w}, r)
	})
}

func applySecurityHeaders(h http.Header) {
	for _, kv := range securityHeaders {
		h.Set(kv[0], kv[1])
	}
}

type securityWriter struct {
	http.ResponseWriter
	wrote bool
}

func (sw *securityWriter) WriteHeader(code int) {
	if !sw.wrote {
		sw.wrote = true
		applySecurityHeaders(sw.Header())
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *securityWriter) Write(b []byte) (int, error) {
	if !sw.wrote {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

func (sw *securityWriter) Flush() {
	if !sw.wrote {
		sw.WriteHeader(http.StatusOK)
	}
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *securityWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
	}
	return h.Hijack()
}
