package opshttp

import (
	"net/http"

	"github.com/redmirror/redmirror/internal/health"
)

type Options struct {
	// Address is the admin bind in host:port form. Empty means ":9090".
	Address string

	// Metrics is the prometheus scrape handler, served at /metrics.
	Metrics http.Handler

	// EnablePprof mounts the pprof handlers under /debug. When false those
	// paths answer 404.
	EnablePprof bool

	Health    health.Probe
	Readiness health.Probe

	UseRecoverMW bool
	OnPanic      func() // Optional callback for when panics are recovered, e.g. to trigger alerts or increment prometheus counters, etc.
}
