package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/zintix-labs/lifespan/errs"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveRequest("/v1/assess", http.MethodGet, 200, 3*time.Millisecond)
	m.ObserveRequest("/v1/assess", http.MethodGet, 200, 3*time.Millisecond)
	m.ObserveAssessment("excellent", 92)
	m.ObserveError(errs.Validationf("humidity", "out of range"))
	m.ObserveError(io.EOF)
	m.ObserveRateLimited()

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/v1/assess", "GET", "200")); got != 2 {
		t.Fatalf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("validation")); got != 1 {
		t.Fatalf("validation failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("other")); got != 1 {
		t.Fatalf("other failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.limited); got != 1 {
		t.Fatalf("limited = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", "GET", 200, time.Millisecond)
	m.ObserveAssessment("good", 80)
	m.ObserveError(io.EOF)
	m.ObserveRateLimited()
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.ObserveAssessment("poor", 12)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{`lifespan_assessments_total{label="poor"} 1`, "lifespan_quality_score_bucket", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
