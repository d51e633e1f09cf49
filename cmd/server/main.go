package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redmirror/redmirror/internal/cfg"
	"github.com/redmirror/redmirror/internal/gatewayhttp"
	"github.com/redmirror/redmirror/internal/health"
	"github.com/redmirror/redmirror/internal/httpserver"
	"github.com/redmirror/redmirror/internal/log"
	"github.com/redmirror/redmirror/internal/mediaproxy"
	"github.com/redmirror/redmirror/internal/metrics"
	"github.com/redmirror/redmirror/internal/opshttp"
	"github.com/redmirror/redmirror/internal/otelx"
	"github.com/redmirror/redmirror/internal/prof"
	"github.com/redmirror/redmirror/internal/ratelimit"
	"github.com/redmirror/redmirror/internal/router"
	v "github.com/redmirror/redmirror/internal/version"
)

const appName = "redmirror"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	// Parse config from args, fill the rest from REDMIRROR_* env vars
	conf, seen := cfg.Parse(os.Args[1:])

	if conf.ShowVersion {
		fmt.Printf(
			"%s %s (commit=%s, build_date=%s, go=%s, dirty=%v)\n",
			appName, vi.Version, vi.Commit, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		os.Exit(0)
	}

	cfg.FillFromEnv(&conf, seen, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// Setup logging
	lvl, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v\n", conf.LogLevel, err)
		os.Exit(1)
	}
	stLvl, err := log.ParseLevel(conf.StacktraceLevel)
	if err != nil {
		stLvl = lvl
	}
	lg, err := log.New(log.Options{
		Service:         appName,
		Level:           lvl,
		StacktraceLevel: stLvl,
		JSON:            conf.LogJSON,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	// no-op for slog/stderr, but here if we swap backends in the future to ensure any buffered logs are flushed on shutdown
	defer lg.Sync()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing gateway",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"address", conf.Address,
		"admin_address", conf.AdminAddress,
		"redirect_https", conf.RedirectHTTPS,
		"trusted_hops", conf.TrustedHops,
		"enable_pprof", conf.EnablePprof,
		"enable_tracing", conf.EnableTracing,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_ratelimit", conf.EnableRateLimit,
		"ratelimit_rps", conf.RateLimitRPS,
		"ratelimit_burst", conf.RateLimitBurst,
		"otlp_endpoint", conf.OTLPEndpoint,
		"trace_sample", conf.TraceSample,
		"proxy_timeout", conf.ProxyTimeout,
	)

	// Setup metrics
	m := metrics.New()
	m.SetBuildInfoFromVersion(appName, "server", &vi)

	// Setup pyroscope profiling
	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       appName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"app":       appName,
			"component": "server",
			"version":   vi.Version,
			"commit":    vi.Commit,
			"source":    "go-agent",
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	m.SetProfilingActive(conf.EnablePyroscope && err == nil)
	defer func() { stopProf() }()

	// Setup otel for tracing
	// Insecure is true because we are only writing to a collector on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   appName,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	// Media proxy, reporting upstream status and bytes to the counters
	proxy := mediaproxy.New(mediaproxy.Options{
		Timeout:   conf.ProxyTimeout,
		UserAgent: appName + "/" + vi.Version,
		OnResult:  m.ObserveProxyResult,
	})

	// Build the route table once; it is immutable from here on
	mux := router.New()
	gatewayhttp.Register(mux, gatewayhttp.Placeholders(proxy))

	// setup toggle for server shutdown
	var gate health.ShutdownGate
	readiness := health.All(gate.Probe())

	opts := httpserver.Options{
		Logger:          L,
		Address:         conf.Address,
		Routes:          mux,
		RedirectHTTPS:   conf.RedirectHTTPS,
		OnHTTPSRedirect: m.IncHTTPSRedirect,
		TrustedHops:     conf.TrustedHops,
		UseRecoverMW:    true,
		OnPanic:         m.IncHttpPanic,
		MetricsMW:       m.Middleware,
	}

	if conf.EnableRateLimit {
		limiter := ratelimit.New(ctx,
			ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
			// increment prometheus counter on each denied request
			ratelimit.WithOnDenied(func(ip string) {
				m.IncRateLimitDenied()
			}),
			// only log the first time an ip is denied each time it is cleaned from the bucket
			ratelimit.WithOnFirstDenied(func(ip string) {
				L.Warn(ctx, "rate limit triggered", "ip", ip)
			}),
			ratelimit.WithOnCapacity(func() {
				m.IncRateLimitCapacity()
				L.Warn(ctx, "rate limit capacity reached, rejecting new visitors until some are evicted")
			}),
		)
		opts.RateLimitMW = limiter.Middleware
	}

	// start public gateway listener
	gatewayStop, err := httpserver.Start(ctx, opts)
	if err != nil {
		L.Error(ctx, err, "failed to bind public listener", "address", conf.Address)
		os.Exit(1)
	}
	defer func() { _ = gatewayStop(context.Background()) }()

	// start admin/ops listener to serve metrics, health checks, pprof and any future admin APIs
	// the firewall restricts inbound to internal monitoring infrastructure; the
	// listener additionally rejects non-private peers in middleware in case
	// that boundary is ever misconfigured
	opsStop, err := opshttp.Start(ctx, L, opshttp.Options{
		Address:      conf.AdminAddress,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to bind admin listener", "address", conf.AdminAddress)
		os.Exit(1)
	}
	defer func() { _ = opsStop(context.Background()) }()

	// notify systemd that we started successfully if started under systemd
	if err := notifySystemd(); err != nil {
		// log and dont exit, worst case systemd will kill the process after timeout
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	// block until signal so we dont exit
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	L.Info(context.Background(), "shutdown signal received")

	// fail readiness to drain connections before closing the listeners
	gate.Set("draining")
	L.Info(context.Background(), "shutdown gate closed, draining")

	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(10 * time.Second):
		L.Info(context.Background(), "drain period complete")
	case <-forceCh:
		L.Warn(context.Background(), "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	if err := gatewayStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "gateway http server shutdown")
	}

	if err := opsStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "ops http server shutdown")
	}

	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "otel shutdown")
	}

	stopProf()

	L.Info(context.Background(), "shutdown complete")
	os.Exit(0)
}

func notifySystemd() error {
	// systemd will set NOTIFY_SOCKET to a unix socket path if we were started under systemd with type=notify
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	conn.Write([]byte("READY=1"))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("systemd notify failed: close failed: %w", err)
	}
	return nil
}
