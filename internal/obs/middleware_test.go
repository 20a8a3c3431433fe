package obs_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/backend-lab/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("lab", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}
	if samples := testutil.CollectAndCount(metrics.ReqDur); samples == 0 {
		t.Fatalf("expected histogram sample")
	}
	if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
		t.Fatalf("expected no in-flight requests, got %v", val)
	}
}

func TestRequestLoggerIncludesDocumentID(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: zerolog.New(&buf)}.Middleware)
	r.Get("/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/doc-42", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"document_id":"doc-42"`)) {
		t.Fatalf("expected document id in log line, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"route":"/documents/{id}"`)) && !bytes.Contains(buf.Bytes(), []byte(`"path":"/documents/doc-42"`)) {
		t.Fatalf("expected route or path in log line, got %s", buf.String())
	}
}

func TestPricingMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := obs.NewPricingMetrics("lab", registry)
	m.ObserveEdit("afterTaxAmount", "backsolved")
	m.ObserveEdit("afterTaxAmount", "backsolved")
	m.ObserveSummary("frozen")
	m.ObserveSave("ok")
	m.DraftOpened()
	m.DraftOpened()
	m.DraftClosed()

	if got := testutil.ToFloat64(m.EditsTotal.WithLabelValues("afterTaxAmount", "backsolved")); got != 2 {
		t.Fatalf("expected 2 edits, got %v", got)
	}
	if got := testutil.ToFloat64(m.SummariesTotal.WithLabelValues("frozen")); got != 1 {
		t.Fatalf("expected 1 frozen summary, got %v", got)
	}
	if got := testutil.ToFloat64(m.DraftsActive); got != 1 {
		t.Fatalf("expected 1 open draft, got %v", got)
	}

	again := obs.NewPricingMetrics("lab", registry)
	if got := testutil.ToFloat64(again.SavesTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected re-registration to reuse the existing collector, got %v", got)
	}

	var nilMetrics *obs.PricingMetrics
	nilMetrics.ObserveEdit("quantity", "forward")
}

func TestTracingHandlerNamesSpanAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(obs.TracingHandler(otelhttp.WithTracerProvider(provider)))
	r.Get("/api/v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if name := spans[0].Name(); name != "GET /api/v1/documents/{id}" {
		t.Fatalf("unexpected span name %q", name)
	}
}

func TestRouteInfoFilledAfterRouting(t *testing.T) {
	var pattern, docID string
	r := chi.NewRouter()
	r.Use(obs.RoutePatternMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			info := obs.RouteInfoFromContext(req.Context())
			next.ServeHTTP(w, req)
			pattern, docID = info.Pattern(), info.DocumentID()
		})
	})
	r.Post("/api/v1/documents/{id}/commands", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-9/commands", nil))

	if pattern != "/api/v1/documents/{id}/commands" || docID != "doc-9" {
		t.Fatalf("unexpected route info pattern=%q id=%q", pattern, docID)
	}
}

func TestParseBucketsCSV(t *testing.T) {
	got := obs.ParseBucketsCSV(" 50, 5,abc,-1,0,25,5 ")
	want := []float64{5, 25, 50}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if obs.ParseBucketsCSV("") != nil {
		t.Fatal("expected nil buckets for empty input")
	}
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("lab", nil, registry)
	second := obs.NewHTTPMetrics("lab", nil, registry)
	if first.ReqTotal != second.ReqTotal || first.InFlight != second.InFlight {
		t.Fatal("expected second construction to reuse registered collectors")
	}
	pricing := obs.NewPricingMetrics("lab", registry)
	again := obs.NewPricingMetrics("lab", registry)
	if pricing.DriftTotal != again.DriftTotal || pricing.DraftsActive != again.DraftsActive {
		t.Fatal("expected pricing collectors to be reused")
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: zerolog.New(&buf), Skip: obs.SkipOperational}.Middleware)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/documents/{id}/save", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if buf.Len() != 0 {
		t.Fatalf("expected health check to be skipped, got %s", buf.String())
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/documents/missing", nil))
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"warn"`)) {
		t.Fatalf("expected warn line for 404, got %s", buf.String())
	}
	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/documents/doc-1/save", nil))
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"error"`)) {
		t.Fatalf("expected error line for 500, got %s", buf.String())
	}
}
