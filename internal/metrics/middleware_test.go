package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace"

	"github.com/redmirror/redmirror/internal/router"
)

// statusWriter

func TestStatusWriter_WriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}

	sw.WriteHeader(http.StatusNotFound)

	if sw.status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", sw.status)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("underlying code = %d, want 404", rec.Code)
	}
}

func TestStatusWriter_Write_DefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}

	n, err := sw.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
	if sw.status != http.StatusOK {
		t.Fatalf("status = %d, want 200", sw.status)
	}
	if sw.n != 5 {
		t.Fatalf("bytes = %d, want 5", sw.n)
	}
}

func TestStatusWriter_Write_AccumulatesBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}

	sw.Write([]byte("aaa"))
	sw.Write([]byte("bbbbb"))

	if sw.n != 8 {
		t.Fatalf("bytes = %d, want 8", sw.n)
	}
}

// Middleware

func labelsOf(m *dto.Metric) map[string]string {
	labels := make(map[string]string)
	for _, lp := range m.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	return labels
}

func TestMiddleware_IncrementsReqTotal(t *testing.T) {
	m := New()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ab1cd/", http.NoBody))

	f := gatherMetric(t, m.reg, "http_requests_total")
	if f == nil {
		t.Fatal("http_requests_total not found")
	}

	var total float64
	for _, metric := range f.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	if total != 1 {
		t.Fatalf("http_requests_total = %f, want 1", total)
	}
}

func TestMiddleware_RouteLabelIsPattern(t *testing.T) {
	m := New()

	mux := router.New()
	mux.Get("/r/{sub}/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("listing"))
	}))
	handler := m.Middleware(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r/golang/", http.NoBody))

	f := gatherMetric(t, m.reg, "http_requests_total")
	if f == nil {
		t.Fatal("http_requests_total not found")
	}
	labels := labelsOf(f.GetMetric()[0])
	if labels["route"] != "/r/{sub}/" {
		t.Fatalf("route label = %q, want the pattern", labels["route"])
	}
	if labels["method"] != http.MethodGet || labels["status"] != "200" {
		t.Fatalf("labels = %v", labels)
	}
}

func TestMiddleware_RouteFallsBackToPath(t *testing.T) {
	m := New()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bare/", http.NoBody))

	f := gatherMetric(t, m.reg, "http_requests_total")
	labels := labelsOf(f.GetMetric()[0])
	if labels["route"] != "/bare/" {
		t.Fatalf("route label = %q, want raw path fallback", labels["route"])
	}
}

func TestMiddleware_CountsServerErrors(t *testing.T) {
	m := New()

	boom := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad upstream", http.StatusBadGateway)
	}))
	boom.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/proxy/x/", http.NoBody))

	if v := counterValue(t, m.reg, "http_errors_total"); v != 1 {
		t.Fatalf("http_errors_total = %f, want 1", v)
	}

	// 4xx is not a server error
	notFound := m.Middleware(http.NotFoundHandler())
	notFound.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing/", http.NoBody))

	if v := counterValue(t, m.reg, "http_errors_total"); v != 1 {
		t.Fatalf("http_errors_total after 404 = %f, want still 1", v)
	}
}

func TestMiddleware_TracksInflight(t *testing.T) {
	m := New()

	var during float64
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = gaugeValue(t, m.reg, "http_inflight_requests")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if during != 1 {
		t.Fatalf("inflight during request = %f, want 1", during)
	}
	if after := gaugeValue(t, m.reg, "http_inflight_requests"); after != 0 {
		t.Fatalf("inflight after request = %f, want 0", after)
	}
}

func TestMiddleware_ObservesDurationAndSize(t *testing.T) {
	m := New()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/", http.NoBody))

	dur := gatherMetric(t, m.reg, "http_request_duration_seconds")
	if dur == nil || dur.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatal("duration histogram not observed")
	}

	size := gatherMetric(t, m.reg, "http_response_size_bytes")
	if size == nil {
		t.Fatal("size histogram not found")
	}
	h := size.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 || h.GetSampleSum() != 10 {
		t.Fatalf("size histogram count=%d sum=%f, want 1/10", h.GetSampleCount(), h.GetSampleSum())
	}
}

// traceExemplar

func TestTraceExemplar_NoSpan(t *testing.T) {
	if ex := traceExemplar(context.Background()); ex != nil {
		t.Fatalf("exemplar = %v, want nil without a span", ex)
	}
}

func TestTraceExemplar_SampledSpan(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	ex := traceExemplar(ctx)
	if ex == nil {
		t.Fatal("exemplar = nil, want trace_id label")
	}
	if ex["trace_id"] != sc.TraceID().String() {
		t.Fatalf("trace_id = %q", ex["trace_id"])
	}
}

func TestTraceExemplar_UnsampledSpan(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:  trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if ex := traceExemplar(ctx); ex != nil {
		t.Fatalf("exemplar = %v, want nil for unsampled span", ex)
	}
}
