package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("POST", "/api/v1/assignments", "201", 20*time.Millisecond)
	m.ObserveRequest("POST", "/api/v1/assignments", "201", 35*time.Millisecond)
	m.ObserveRequest("GET", "", "200", time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/v1/assignments", "201")); got != 2 {
		t.Fatalf("expected 2 assignment requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "unknown", "200")); got != 1 {
		t.Fatalf("expected empty route to be normalized, got %v", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := NewHTTPMetrics(nil)
	m.ObserveRequest("GET", "/health/live", "200", time.Millisecond)
	m.IncInflight()
	m.DecInflight()
}

func TestInflightGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.IncInflight()
	m.IncInflight()
	m.DecInflight()

	if got := testutil.ToFloat64(m.inflight); got != 1 {
		t.Fatalf("expected in-flight gauge 1, got %v", got)
	}
}
