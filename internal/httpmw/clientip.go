package httpmw

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type clientIPKey struct{}

// ClientIPOptions configures client IP extraction.
type ClientIPOptions struct {
	// TrustedHops is the number of reverse proxies between the client and
	// this server. 0 means directly exposed: X-Forwarded-For and
	// X-Forwarded-Proto are ignored and stripped. 1 means a single proxy
	// (rightmost X-Forwarded-For entry), 2 a CDN in front of that, etc.
	TrustedHops int
}

// ClientIP resolves the real client address once and stores it in the
// context for rate limiting and logging. Forwarded headers are only honored
// when the connection peer is our own infrastructure (loopback or private
// address space) and TrustedHops says how many entries to trust; otherwise
// they are stripped so nothing downstream can be fooled by them, including
// the https redirect's scheme check.
func ClientIP(opts ClientIPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := realClientAddr(r, opts.TrustedHops)
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
		})
	}
}

func realClientAddr(r *http.Request, trustedHops int) string {
	if r.RemoteAddr == "" {
		return "0.0.0.0"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil {
		return "0.0.0.0"
	}

	trustedPeer := peer.IsLoopback() || peer.IsPrivate()
	if !trustedPeer || trustedHops <= 0 {
		r.Header.Del("X-Forwarded-For")
		r.Header.Del("X-Forwarded-Proto")
		return host
	}

	// Nth-from-end X-Forwarded-For entry; entries to its right were
	// appended by our own proxies. Fewer entries than expected hops means
	// misconfiguration or manipulation: fail closed.
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		idx := len(parts) - trustedHops
		if idx < 0 {
			r.Header.Del("X-Forwarded-For")
			r.Header.Del("X-Forwarded-Proto")
			return host
		}
		if candidate := strings.TrimSpace(parts[idx]); net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return host
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
