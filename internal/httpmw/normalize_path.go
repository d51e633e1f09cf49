package httpmw

import (
	"net/http"
	"strings"
)

// NormalizePath rewrites the request path into the canonical form the route
// table is registered with: runs of slashes collapse to one and the path
// ends with exactly one trailing slash. The query string is untouched and
// no redirect is issued; matching proceeds on the rewritten path.
func NormalizePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := CanonicalPath(r.URL.Path); p != r.URL.Path {
			r2 := r.Clone(r.Context())
			r2.URL.Path = p
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

// CanonicalPath collapses duplicate slashes and appends the trailing slash.
// "" and "/" both canonicalize to "/".
func CanonicalPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	var b strings.Builder
	b.Grow(len(p) + 2)
	if p[0] != '/' {
		b.WriteByte('/')
	}
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	if !prevSlash {
		b.WriteByte('/')
	}
	return b.String()
}
