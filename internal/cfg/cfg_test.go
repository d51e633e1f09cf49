package cfg

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	c, seen := Parse(nil)

	if c.Address != "0.0.0.0:8080" {
		t.Fatalf("Address = %q, want 0.0.0.0:8080", c.Address)
	}
	if c.RedirectHTTPS {
		t.Fatal("RedirectHTTPS should default to false")
	}
	if c.LogLevel != "info" || !c.LogJSON {
		t.Fatalf("log defaults wrong: level=%q json=%v", c.LogLevel, c.LogJSON)
	}
	if c.ProxyTimeout != 30*time.Second {
		t.Fatalf("ProxyTimeout = %v", c.ProxyTimeout)
	}
	if len(seen) != 0 {
		t.Fatalf("seen = %v, want empty", seen)
	}
}

func TestParse_AddressLongAndShort(t *testing.T) {
	c, _ := Parse([]string{"--address=127.0.0.1:1234"})
	if c.Address != "127.0.0.1:1234" {
		t.Fatalf("Address = %q", c.Address)
	}

	c, _ = Parse([]string{"-a=10.0.0.1:80"})
	if c.Address != "10.0.0.1:80" {
		t.Fatalf("Address = %q", c.Address)
	}
}

func TestParse_RedirectByPresence(t *testing.T) {
	c, _ := Parse([]string{"--redirect-https"})
	if !c.RedirectHTTPS {
		t.Fatal("--redirect-https should enable the redirect")
	}

	c, _ = Parse([]string{"-r"})
	if !c.RedirectHTTPS {
		t.Fatal("-r should enable the redirect")
	}
}

func TestParse_ExplicitBoolValue(t *testing.T) {
	c, _ := Parse([]string{"--enable-pprof=false"})
	if c.EnablePprof {
		t.Fatal("--enable-pprof=false should disable pprof")
	}
}

func TestParse_TrustedHops(t *testing.T) {
	c, _ := Parse(nil)
	if c.TrustedHops != 1 {
		t.Fatalf("TrustedHops default = %d, want 1", c.TrustedHops)
	}

	c, _ = Parse([]string{"--trusted-hops=2"})
	if c.TrustedHops != 2 {
		t.Fatalf("TrustedHops = %d, want 2", c.TrustedHops)
	}

	// zero means directly exposed, forwarded headers ignored
	c, _ = Parse([]string{"--trusted-hops=0"})
	if c.TrustedHops != 0 {
		t.Fatalf("TrustedHops = %d, want 0", c.TrustedHops)
	}
}

func TestParse_UnknownArgsIgnored(t *testing.T) {
	c, seen := Parse([]string{"serve", "--no-such-flag=1", "-x", "--", "extra"})

	if c.Address != "0.0.0.0:8080" {
		t.Fatalf("Address = %q, defaults should survive junk args", c.Address)
	}
	if len(seen) != 0 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestParse_ValueFlagWithoutEqualsIgnored(t *testing.T) {
	// space-separated form is not supported; the bare flag is skipped
	c, _ := Parse([]string{"--address", "127.0.0.1:9999"})
	if c.Address != "0.0.0.0:8080" {
		t.Fatalf("Address = %q, want default", c.Address)
	}
}

func TestParse_RepeatedLastWins(t *testing.T) {
	c, _ := Parse([]string{"-a=1.1.1.1:1", "--address=2.2.2.2:2", "-a=3.3.3.3:3"})
	if c.Address != "3.3.3.3:3" {
		t.Fatalf("Address = %q, want 3.3.3.3:3", c.Address)
	}
}

func TestParse_MalformedValueIgnored(t *testing.T) {
	c, seen := Parse([]string{"--trace-sample=lots", "--ratelimit-burst=many"})

	if c.TraceSample != 0 || c.RateLimitBurst != 30 {
		t.Fatalf("malformed values should keep defaults: sample=%v burst=%d", c.TraceSample, c.RateLimitBurst)
	}
	if len(seen) != 0 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestParse_MixedOrder(t *testing.T) {
	c, seen := Parse([]string{"--redirect-https", "ignored", "-a=0.0.0.0:3000", "--log-level=debug"})

	if !c.RedirectHTTPS || c.Address != "0.0.0.0:3000" || c.LogLevel != "debug" {
		t.Fatalf("parse result wrong: %+v", c)
	}
	for _, name := range []string{"redirect-https", "address", "log-level"} {
		if !seen[name] {
			t.Fatalf("seen missing %q: %v", name, seen)
		}
	}
}

func TestFillFromEnv_SetsUnseen(t *testing.T) {
	t.Setenv("REDMIRROR_ADDRESS", "127.0.0.1:5555")
	t.Setenv("REDMIRROR_REDIRECT_HTTPS", "true")

	c, seen := Parse(nil)
	FillFromEnv(&c, seen, nil)

	if c.Address != "127.0.0.1:5555" {
		t.Fatalf("Address = %q, want env value", c.Address)
	}
	if !c.RedirectHTTPS {
		t.Fatal("RedirectHTTPS should come from env")
	}
}

func TestFillFromEnv_CliWins(t *testing.T) {
	t.Setenv("REDMIRROR_ADDRESS", "127.0.0.1:5555")

	c, seen := Parse([]string{"--address=10.1.1.1:8080"})

	var note string
	FillFromEnv(&c, seen, func(f string, args ...any) { note = f })

	if c.Address != "10.1.1.1:8080" {
		t.Fatalf("Address = %q, cli should win over env", c.Address)
	}
	if !strings.Contains(note, "overrides env") {
		t.Fatalf("expected override log, got %q", note)
	}
}

func TestFillFromEnv_InvalidValueIgnored(t *testing.T) {
	t.Setenv("REDMIRROR_PROXY_TIMEOUT", "soon")

	c, seen := Parse(nil)
	logged := false
	FillFromEnv(&c, seen, func(string, ...any) { logged = true })

	if c.ProxyTimeout != 30*time.Second {
		t.Fatalf("ProxyTimeout = %v, want default", c.ProxyTimeout)
	}
	if !logged {
		t.Fatal("invalid env value should be logged")
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()): %v", err)
	}
}

func TestValidate_BadAddress(t *testing.T) {
	c := Default()
	c.Address = "no-port-here"
	if err := Validate(c); err == nil {
		t.Fatal("address without port should fail validation")
	}

	c = Default()
	c.Address = "0.0.0.0:99999"
	if err := Validate(c); err == nil {
		t.Fatal("out-of-range port should fail validation")
	}
}

func TestValidate_AddressCollision(t *testing.T) {
	c := Default()
	c.AdminAddress = c.Address
	if err := Validate(c); err == nil {
		t.Fatal("public and admin address must differ")
	}
}

func TestValidate_TrustedHops(t *testing.T) {
	c := Default()
	c.TrustedHops = -1
	if err := Validate(c); err == nil {
		t.Fatal("negative trusted hops should fail validation")
	}

	c.TrustedHops = 0
	if err := Validate(c); err != nil {
		t.Fatalf("zero trusted hops rejected: %v", err)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	c := Default()
	c.LogLevel = "loud"
	if err := Validate(c); err == nil {
		t.Fatal("bad log level should fail validation")
	}
}

func TestValidate_TracingRequirements(t *testing.T) {
	c := Default()
	c.EnableTracing = true
	if err := Validate(c); err == nil {
		t.Fatal("tracing without endpoint should fail")
	}

	c.OTLPEndpoint = "collector:4317"
	if err := Validate(c); err != nil {
		t.Fatalf("valid otlp endpoint rejected: %v", err)
	}

	c.TraceSample = 1.5
	if err := Validate(c); err == nil {
		t.Fatal("sample ratio above 1 should fail")
	}
}

func TestValidate_PyroscopeRequirements(t *testing.T) {
	c := Default()
	c.EnablePyroscope = true
	if err := Validate(c); err == nil {
		t.Fatal("pyroscope without server/tenant should fail")
	}

	c.PyroServer = "https://pyro.example.com"
	c.PyroTenantID = "redmirror"
	if err := Validate(c); err != nil {
		t.Fatalf("valid pyroscope config rejected: %v", err)
	}
}

func TestValidate_RateLimitBounds(t *testing.T) {
	c := Default()
	c.RateLimitRPS = 0
	if err := Validate(c); err == nil {
		t.Fatal("zero rps should fail while limiting is enabled")
	}

	c = Default()
	c.EnableRateLimit = false
	c.RateLimitRPS = 0
	if err := Validate(c); err != nil {
		t.Fatalf("rate knobs should be ignored when limiting is off: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	c := Default()
	c.Address = "bad"
	c.LogLevel = "loud"
	c.TraceSample = -1

	err := Validate(c)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, frag := range []string{"ADDRESS", "LOG_LEVEL", "TRACE_SAMPLE"} {
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("error should mention %s: %v", frag, err)
		}
	}
}
