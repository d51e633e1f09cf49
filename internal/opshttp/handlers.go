package opshttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/redmirror/redmirror/internal/log"
	"github.com/redmirror/redmirror/internal/version"
)

// BuildInfoHandler reports the running build as JSON so monitoring can
// correlate deploys with behavior changes without parsing the metrics
// exposition.
func BuildInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, version.Get())
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(ctx).Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
