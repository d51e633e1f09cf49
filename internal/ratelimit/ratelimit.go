package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/redmirror/redmirror/internal/httpmw"
)

// visitor tracks one IP's token bucket and last activity.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// warned tracks whether the first-denial hook already fired for this
	// entry. Resets when the entry is evicted and re-created.
	warned bool
}

// IPLimiter holds per-IP token buckets with background eviction of idle
// entries and a hard cap on how many addresses it tracks at once.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	// atCapacity is set when a new address is first turned away because the
	// table is full, and cleared once eviction frees a slot. Gates the
	// OnCapacity hook so a sustained address-spray logs once per episode.
	atCapacity bool

	// perSecond is the refill rate, burst the bucket ceiling.
	perSecond rate.Limit
	burst     int

	// ttl is how long an idle address stays in the table before eviction.
	ttl time.Duration

	// maxVisitors caps the table size. Zero disables the cap.
	maxVisitors int

	// OnFirstDenied fires once per visitor when it first exceeds its bucket.
	// ip is the bare address, no port.
	OnFirstDenied func(ip string)

	// OnDenied fires on every rejected request, bucket-exhausted and
	// table-full alike. Used to drive the denial counter.
	OnDenied func(ip string)

	// OnCapacity fires once per full-table episode, when the first new
	// address is turned away.
	OnCapacity func()
}

type Option func(*IPLimiter)

// WithRate sets the refill rate and bucket ceiling. WithRate(10, 50) lets a
// client burst 50 requests, then refills its bucket at 10 tokens per second.
func WithRate(perSecond float64, burst int) Option {
	return func(l *IPLimiter) {
		l.perSecond = rate.Limit(perSecond)
		l.burst = burst
	}
}

// WithTTL controls how long an idle address stays in the table before the
// cleanup pass evicts it.
func WithTTL(d time.Duration) Option {
	return func(l *IPLimiter) {
		l.ttl = d
	}
}

// WithMaxVisitors caps the number of tracked addresses. Zero disables the cap.
func WithMaxVisitors(n int) Option {
	return func(l *IPLimiter) {
		l.maxVisitors = n
	}
}

// WithOnFirstDenied sets a hook for the first denial per visitor, used for
// logging. Kept separate from OnDenied so one offender produces one log line
// while counters still see every rejection.
func WithOnFirstDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) {
		l.OnFirstDenied = fn
	}
}

// WithOnDenied sets a hook for every rejected request, used for counters.
func WithOnDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) {
		l.OnDenied = fn
	}
}

// WithOnCapacity sets a hook that fires once per full-table episode.
func WithOnCapacity(fn func()) Option {
	return func(l *IPLimiter) {
		l.OnCapacity = fn
	}
}

// New creates an IPLimiter and starts its cleanup goroutine. The goroutine
// exits when ctx is cancelled, which on this server happens at shutdown.
func New(ctx context.Context, opts ...Option) *IPLimiter {
	l := &IPLimiter{
		visitors:    make(map[string]*visitor),
		perSecond:   10,
		burst:       30,
		ttl:         5 * time.Minute,
		maxVisitors: 100000,
	}
	for _, o := range opts {
		o(l)
	}
	go l.cleanup(ctx)
	return l
}

// allow reports whether a request from ip may proceed. Creates the visitor
// entry on first sight, enforces the table cap, and fires the hooks. Hooks
// run outside the lock since they may log or touch counters.
func (l *IPLimiter) allow(ip string) bool {
	l.mu.Lock()
	v, exists := l.visitors[ip]
	if !exists {
		if l.maxVisitors > 0 && len(l.visitors) >= l.maxVisitors {
			first := !l.atCapacity
			l.atCapacity = true
			l.mu.Unlock()
			if first && l.OnCapacity != nil {
				l.OnCapacity()
			}
			if l.OnDenied != nil {
				l.OnDenied(ip)
			}
			return false
		}
		v = &visitor{
			limiter: rate.NewLimiter(l.perSecond, l.burst),
		}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	allowed := v.limiter.Allow()

	if !allowed && !v.warned {
		v.warned = true
		l.mu.Unlock()
		if l.OnFirstDenied != nil {
			l.OnFirstDenied(ip)
		}
		if l.OnDenied != nil {
			l.OnDenied(ip)
		}
		return false
	}

	l.mu.Unlock()

	if !allowed && l.OnDenied != nil {
		l.OnDenied(ip)
	}

	return allowed
}

// cleanup evicts addresses idle past the TTL. Runs every TTL/2 so stale
// entries don't linger much beyond their deadline.
func (l *IPLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for ip, v := range l.visitors {
				if now.Sub(v.lastSeen) > l.ttl {
					delete(l.visitors, ip)
				}
			}
			if l.atCapacity && (l.maxVisitors <= 0 || len(l.visitors) < l.maxVisitors) {
				l.atCapacity = false
			}
			l.mu.Unlock()
		}
	}
}

// Middleware rejects requests over the per-IP limit with 429.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ClientIP middleware has already resolved the peer, including the
		// forwarded-for handling for trusted proxies.
		ip := httpmw.ClientIPFromContext(r.Context())

		if !l.allow(ip) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			// no detail about limits, remaining budget, or refill timing
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
