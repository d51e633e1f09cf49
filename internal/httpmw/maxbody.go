package httpmw

import "net/http"

// MaxBody limits request body size. Reading past the limit yields
// 413 Request Entity Too Large. The gateway only accepts tiny form posts, so
// the cap is safe to apply to every route.
func MaxBody(bytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, bytes)
			next.ServeHTTP(w, r)
		})
	}
}
