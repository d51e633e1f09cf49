package httpmw

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/redmirror/redmirror/internal/router"
)

// AnnotateHTTPRoute renames the server span to "METHOD <route pattern>" once
// dispatch has resolved the pattern. It injects the route context holder so
// the result is observable here even though matching happens further in.
func AnnotateHTTPRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if router.RouteContext(r.Context()) == nil {
			ctx, _ := router.NewRouteContext(r.Context())
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)

		routePat := router.Pattern(r.Context())
		if routePat == "" {
			routePat = r.URL.Path
		}
		span := trace.SpanFromContext(r.Context())
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(attribute.String("http.route", routePat))
		span.SetName(r.Method + " " + routePat)
	})
}
