package httpserver

import (
	"net/http"

	"github.com/redmirror/redmirror/internal/log"
)

type Options struct {
	Logger log.Logger

	// Address is the public bind in host:port form. Empty means ":8080".
	Address string

	// Routes is the gateway routing table, normally the mux built by
	// gatewayhttp.Register.
	Routes http.Handler

	// RedirectHTTPS answers plain-scheme requests with a 302 to https.
	// OnHTTPSRedirect, when set, fires once per redirect issued.
	RedirectHTTPS   bool
	OnHTTPSRedirect func()

	// TrustedHops is the number of reverse proxies between clients and this
	// server. Zero means directly exposed and forwarded headers are ignored.
	TrustedHops int

	// MaxBodyBytes caps request bodies. The only body this gateway accepts
	// is the settings form, so the default is small.
	MaxBodyBytes int64

	UseRecoverMW bool
	OnPanic      func()

	MetricsMW   func(http.Handler) http.Handler
	RateLimitMW func(http.Handler) http.Handler
}
