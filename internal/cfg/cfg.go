// Package cfg holds startup configuration. Arguments are scanned
// permissively: values come from the text after "=", boolean flags are set
// by presence, unknown or malformed arguments are skipped, and repeats keep
// the last occurrence. Anything not set on the command line can be filled
// from REDMIRROR_* environment variables.
package cfg

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redmirror/redmirror/internal/log"
)

const envPrefix = "REDMIRROR_"

type App struct {
	Address         string
	RedirectHTTPS   bool
	TrustedHops     int
	AdminAddress    string
	LogJSON         bool
	LogLevel        string
	StacktraceLevel string
	EnablePprof     bool
	EnableTracing   bool
	OTLPEndpoint    string
	TraceSample     float64
	EnablePyroscope bool
	PyroServer      string
	PyroTenantID    string
	EnableRateLimit bool
	RateLimitRPS    float64
	RateLimitBurst  int
	ProxyTimeout    time.Duration
	ShowVersion     bool
}

func Default() App {
	return App{
		Address:         "0.0.0.0:8080",
		RedirectHTTPS:   false,
		TrustedHops:     1,
		AdminAddress:    "0.0.0.0:9090",
		LogJSON:         true,
		LogLevel:        "info",
		StacktraceLevel: "error",
		EnablePprof:     true,
		TraceSample:     0.0,
		EnableRateLimit: true,
		RateLimitRPS:    10,
		RateLimitBurst:  30,
		ProxyTimeout:    30 * time.Second,
	}
}

type opt struct {
	name   string // canonical long name, no dashes
	alias  string // optional short form, no dash
	isBool bool
	apply  func(c *App, v string) error
}

func options() []opt {
	return []opt{
		{name: "address", alias: "a", apply: func(c *App, v string) error { c.Address = v; return nil }},
		{name: "redirect-https", alias: "r", isBool: true, apply: func(c *App, v string) error { return setBool(&c.RedirectHTTPS, v) }},
		{name: "trusted-hops", apply: func(c *App, v string) error { return setInt(&c.TrustedHops, v) }},
		{name: "admin-address", apply: func(c *App, v string) error { c.AdminAddress = v; return nil }},
		{name: "log-json", isBool: true, apply: func(c *App, v string) error { return setBool(&c.LogJSON, v) }},
		{name: "log-level", apply: func(c *App, v string) error { c.LogLevel = v; return nil }},
		{name: "stacktrace-level", apply: func(c *App, v string) error { c.StacktraceLevel = v; return nil }},
		{name: "enable-pprof", isBool: true, apply: func(c *App, v string) error { return setBool(&c.EnablePprof, v) }},
		{name: "enable-tracing", isBool: true, apply: func(c *App, v string) error { return setBool(&c.EnableTracing, v) }},
		{name: "otlp-endpoint", apply: func(c *App, v string) error { c.OTLPEndpoint = v; return nil }},
		{name: "trace-sample", apply: func(c *App, v string) error { return setFloat(&c.TraceSample, v) }},
		{name: "enable-pyroscope", isBool: true, apply: func(c *App, v string) error { return setBool(&c.EnablePyroscope, v) }},
		{name: "pyro-server", apply: func(c *App, v string) error { c.PyroServer = v; return nil }},
		{name: "pyro-tenant", apply: func(c *App, v string) error { c.PyroTenantID = v; return nil }},
		{name: "enable-ratelimit", isBool: true, apply: func(c *App, v string) error { return setBool(&c.EnableRateLimit, v) }},
		{name: "ratelimit-rps", apply: func(c *App, v string) error { return setFloat(&c.RateLimitRPS, v) }},
		{name: "ratelimit-burst", apply: func(c *App, v string) error { return setInt(&c.RateLimitBurst, v) }},
		{name: "proxy-timeout", apply: func(c *App, v string) error { return setDuration(&c.ProxyTimeout, v) }},
		{name: "version", alias: "V", isBool: true, apply: func(c *App, v string) error { return setBool(&c.ShowVersion, v) }},
	}
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// Parse scans args and returns the resulting config plus the set of
// canonical flag names that were applied, for env precedence.
func Parse(args []string) (App, map[string]bool) {
	c := Default()
	byFlag := make(map[string]opt)
	for _, o := range options() {
		byFlag["--"+o.name] = o
		if o.alias != "" {
			byFlag["-"+o.alias] = o
		}
	}

	seen := make(map[string]bool)
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		o, ok := byFlag[name]
		if !ok {
			continue
		}
		if !o.isBool && !hasVal {
			continue
		}
		if o.isBool && !hasVal {
			val = "true"
		}
		if err := o.apply(&c, val); err != nil {
			continue
		}
		seen[o.name] = true
	}
	return c, seen
}

// FillFromEnv sets any flag not seen on the command line from environment
// variables. Flag "foo-bar" maps to REDMIRROR_FOO_BAR.
// Precedence: cli flag > env var > default.
func FillFromEnv(c *App, seen map[string]bool, logf func(string, ...any)) {
	for _, o := range options() {
		key := envPrefix + strings.ReplaceAll(strings.ToUpper(o.name), "-", "_")
		envVal, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if seen[o.name] {
			if logf != nil {
				logf("flag --%s: cli value overrides env %s=%q", o.name, key, envVal)
			}
			continue
		}
		if err := o.apply(c, envVal); err != nil {
			if logf != nil {
				logf("flag --%s: ignoring invalid env %s=%q: %v", o.name, key, envVal, err)
			}
		}
	}
}

// Validate checks that config values are within expected ranges and formats.
// Returns an error describing all invalid fields, or nil if all valid.
func Validate(c App) error {
	var errs []error

	if err := checkHostPort(c.Address); err != nil {
		errs = append(errs, fmt.Errorf("invalid ADDRESS %q: %w", c.Address, err))
	}
	if err := checkHostPort(c.AdminAddress); err != nil {
		errs = append(errs, fmt.Errorf("invalid ADMIN_ADDRESS %q: %w", c.AdminAddress, err))
	}
	if c.Address == c.AdminAddress {
		errs = append(errs, fmt.Errorf("ADDRESS and ADMIN_ADDRESS must differ (both %q)", c.Address))
	}

	if c.TrustedHops < 0 {
		errs = append(errs, fmt.Errorf("TRUSTED_HOPS must be >= 0 (got %d)", c.TrustedHops))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err))
	}
	if c.StacktraceLevel != "" {
		if _, err := log.ParseLevel(c.StacktraceLevel); err != nil {
			errs = append(errs, fmt.Errorf("invalid STACKTRACE_LEVEL %q: %w", c.StacktraceLevel, err))
		}
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err))
		}
	}

	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if u, err := url.Parse(c.PyroServer); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, fmt.Errorf("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}

	if c.EnableRateLimit {
		if c.RateLimitRPS <= 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_RPS must be > 0 (got %g)", c.RateLimitRPS))
		}
		if c.RateLimitBurst < 1 {
			errs = append(errs, fmt.Errorf("RATELIMIT_BURST must be >= 1 (got %d)", c.RateLimitBurst))
		}
	}

	if c.ProxyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROXY_TIMEOUT must be > 0 (got %v)", c.ProxyTimeout))
	}

	return errors.Join(errs...)
}

func checkHostPort(s string) error {
	_, port, err := net.SplitHostPort(s)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port %q is not numeric", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range 1..65535", n)
	}
	return nil
}
