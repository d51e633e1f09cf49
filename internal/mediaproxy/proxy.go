// Package mediaproxy streams upstream media through the gateway so browsers
// never connect to the upstream CDN directly. Only https targets with a host
// are fetched; the upstream request carries a fixed User-Agent and none of
// the client's cookies or referrer.
package mediaproxy

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redmirror/redmirror/internal/log"
	"github.com/redmirror/redmirror/internal/router"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "redmirror"
)

// Options configures the proxy. The zero value is usable.
type Options struct {
	// Timeout bounds the whole upstream exchange. Ignored when Client is
	// set.
	Timeout time.Duration

	// UserAgent is sent on every upstream request.
	UserAgent string

	// Client overrides the upstream HTTP client, mainly for tests.
	Client *http.Client

	// OnResult reports the upstream status and the number of body bytes
	// relayed, after the response has been written.
	OnResult func(status int, bytes int64)
}

// Proxy relays media requests. Safe for concurrent use.
type Proxy struct {
	client    *http.Client
	userAgent string
	onResult  func(status int, bytes int64)
}

func New(opts Options) *Proxy {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Proxy{client: client, userAgent: ua, onResult: opts.OnResult}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := targetURL(router.Param(ctx, "url"), r.URL.RawQuery)
	if err != nil {
		http.Error(w, "invalid media url", http.StatusBadRequest)
		p.report(http.StatusBadRequest, 0)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, "invalid media url", http.StatusBadRequest)
		p.report(http.StatusBadRequest, 0)
		return
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		log.FromContext(ctx).Warn(ctx, "media upstream fetch failed",
			"upstream.host", target.Host, "error", err.Error())
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		p.report(http.StatusBadGateway, 0)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		// client went away or upstream died mid-stream; the status line is
		// already out, nothing to do but note it
		log.FromContext(ctx).Debug(ctx, "media relay interrupted",
			"upstream.host", target.Host, "bytes", n, "error", err.Error())
	}
	p.report(resp.StatusCode, n)
}

// targetURL rebuilds the upstream URL from the wildcard remainder. Path
// normalization collapses the double slash after the scheme, so
// "https:/host/..." is repaired before parsing. Userinfo is dropped;
// anything that is not https with a host is rejected.
func targetURL(raw, query string) (*url.URL, error) {
	if rest, ok := strings.CutPrefix(raw, "https:/"); ok && !strings.HasPrefix(rest, "/") {
		raw = "https://" + rest
	}
	if rest, ok := strings.CutPrefix(raw, "http:/"); ok && !strings.HasPrefix(rest, "/") {
		raw = "http://" + rest
	}
	if query != "" {
		raw += "?" + query
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	u.User = nil
	if u.Scheme != "https" || u.Host == "" {
		return nil, errNotProxyable
	}
	return u, nil
}

var errNotProxyable = errors.New("target must be an absolute https url")

func (p *Proxy) report(status int, bytes int64) {
	if p.onResult != nil {
		p.onResult(status, bytes)
	}
}
