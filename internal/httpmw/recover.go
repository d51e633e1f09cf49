package httpmw

import (
	"net/http"

	"github.com/redmirror/redmirror/internal/log"
	"github.com/redmirror/redmirror/internal/xerrors"
)

// Recover converts handler panics into 500 responses. The panic value is
// logged with a stack; onPanic (optional) feeds the panic counter metric.
// http.ErrAbortHandler is re-raised so the server's own abort path works.
func Recover(logger log.Logger, onPanic func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler { //nolint:errorlint // sentinel comparison on purpose
					panic(v)
				}

				err, ok := v.(error)
				if !ok {
					err = xerrors.Newf("panic: %v", v)
				}
				err = xerrors.EnsureTrace(err)

				if onPanic != nil {
					onPanic()
				}
				logger.With(
					"http.request.method", r.Method,
					"url.path", r.URL.Path,
				).Error(r.Context(), err, "httpserver panic recovered")

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
