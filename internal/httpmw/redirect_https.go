package httpmw

import (
	"net/http"
	"strings"
)

// RedirectHTTPS answers requests that did not arrive over https with a
// 302 Found to the same host, path, and query on the https scheme. The
// decision is made before the inner handler runs; redirected requests never
// reach it. Installed after NormalizePath so the Location header carries the
// canonical path. onRedirect, when non-nil, fires once per redirect issued.
func RedirectHTTPS(onRedirect func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SchemeFromRequest(r) != "https" {
				if onRedirect != nil {
					onRedirect()
				}
				http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SchemeFromRequest resolves the effective request scheme. X-Forwarded-Proto
// wins when present; ClientIP strips it beforehand unless the peer is
// trusted infrastructure, so reading it here is safe. Otherwise the
// connection's TLS state decides.
func SchemeFromRequest(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-Proto"); xf != "" {
		// first entry if a chain of proxies appended
		scheme, _, _ := strings.Cut(xf, ",")
		return strings.TrimSpace(scheme)
	}
	if r.URL != nil && r.URL.Scheme != "" {
		return r.URL.Scheme
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
