package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func assertSeries(t *testing.T, body string, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if !strings.Contains(body, line+"\n") {
			t.Fatalf("missing series %q in exposition:\n%s", line, body)
		}
	}
}

func TestKnowledgeMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewKnowledgeMetrics("test", registry)

	m.ObserveIngest("ready", time.Second, 5, 3)
	m.ObserveIngest("failed", time.Second, 0, 0)
	m.ObserveRetrieval(2, true, false, 10*time.Millisecond)
	m.ObserveRetrieval(0, false, true, time.Millisecond)

	body := scrape(t, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	assertSeries(t, body,
		`agrokb_ingest_documents_total{service="test",status="ready"} 1`,
		`agrokb_ingest_documents_total{service="test",status="failed"} 1`,
		`agrokb_ingest_chunks_total{outcome="embedded",service="test"} 3`,
		`agrokb_ingest_chunks_total{outcome="unembedded",service="test"} 2`,
		`agrokb_retrieval_requests_total{outcome="context",service="test"} 1`,
		`agrokb_retrieval_requests_total{outcome="no_data",service="test"} 1`,
		`agrokb_retrieval_structured_hits_total{service="test"} 1`,
	)
}

func TestHTTPMiddlewareRecordsNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/v1/documents/abc", nil))
	m.RecordRateLimited("/v1/knowledge/search")
	m.Knowledge().ObserveRetrieval(1, false, false, time.Millisecond)

	body := scrape(t, m.Handler())
	assertSeries(t, body,
		`agrokb_http_requests_total{code="204",method="delete",path="/v1/documents/{id}",service="api"} 1`,
		`agrokb_http_rate_limited_total{path="/v1/knowledge/search",service="api"} 1`,
		`agrokb_retrieval_requests_total{outcome="context",service="api"} 1`,
		`agrokb_http_in_flight_requests{service="api"} 0`,
	)
}

func TestRouteTemplate(t *testing.T) {
	tests := map[string]string{
		"/v1/documents":        "/v1/documents",
		"/v1/documents/":       "/v1/documents/",
		"/v1/documents/abc-1":  "/v1/documents/{id}",
		"/v1/knowledge/search": "/v1/knowledge/search",
	}
	for in, want := range tests {
		if got := routeTemplate(in); got != want {
			t.Fatalf("routeTemplate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWorkerMetricsFinishDocument(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartDocument()
	m.FinishDocument(time.Second, nil)
	m.StartDocument()
	m.FinishDocument(time.Second, errors.New("extract failed"))
	m.ObserveQueueLag(-time.Second)
	m.ObserveQueueLag(2 * time.Second)

	body := scrape(t, m.Handler())
	assertSeries(t, body,
		`agrokb_worker_ingest_requests_total{service="worker",status="success"} 1`,
		`agrokb_worker_ingest_requests_total{service="worker",status="error"} 1`,
		`agrokb_worker_ingest_requests_in_flight{service="worker"} 0`,
		`agrokb_worker_queue_lag_seconds_count{service="worker"} 1`,
	)
}
