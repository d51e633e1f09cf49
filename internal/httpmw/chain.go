package httpmw

import "net/http"

// Chain wraps h so that the first middleware in the list is outermost and
// the last runs directly around h. Nil entries are skipped, which lets
// callers include middleware conditionally.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	wrapped := h
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
