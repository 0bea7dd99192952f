package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"terrain-streamer/internal/terrain"
)

func TestMetrics_observes_stream(t *testing.T) {
	m := New()
	set := terrain.TemplateSet{Templates: []terrain.Template{{ID: 1, Name: "flat"}}}
	s, err := terrain.NewStream(terrain.Config{SegmentWidth: 10}, set, &terrain.SegmentFactory{}, terrain.WithObserver(m))
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	_ = s.Tick(terrain.Viewport{Left: 0, Right: 30})
	_ = s.Tick(terrain.Viewport{Left: 5, Right: 40})

	if got := testutil.ToFloat64(m.poolConstructions); got != 4 {
		t.Errorf("constructions = %g, want 4", got)
	}
	if got := testutil.ToFloat64(m.segmentsRecycled.WithLabelValues("1")); got != 1 {
		t.Errorf("recycled = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.segmentsSpawned.WithLabelValues("1")); got != 4 {
		t.Errorf("spawned = %g, want 4", got)
	}
}

func TestMetrics_InvariantViolated_kind(t *testing.T) {
	m := New()
	m.InvariantViolated(fmt.Errorf("wrap: %w", terrain.ErrEvictionMismatch))
	m.InvariantViolated(terrain.ErrUnregisteredTemplate)
	m.InvariantViolated(io.EOF)

	for kind, want := range map[string]float64{"eviction_mismatch": 1, "unregistered_template": 1, "other": 1, "double_release": 0} {
		if got := testutil.ToFloat64(m.invariantViolation.WithLabelValues(kind)); got != want {
			t.Errorf("%s = %g, want %g", kind, got, want)
		}
	}
}

func TestRequestMiddleware_and_Handler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(RequestMiddleware(m))
	r.Get("/ok/{id}", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m.Handler(func() { m.SetActiveSessions(3) }).ServeHTTP(w, r)
	})

	for _, path := range []string{"/ok/1", "/ok/2", "/fail"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/ok/{id}")); got != 2 {
		t.Errorf("requests /ok/{id} = %g, want 2", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal); got != 1 {
		t.Errorf("errors = %g, want 1", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "terrain_active_sessions 3") {
		t.Errorf("metrics output missing active sessions gauge:\n%s", body)
	}
}
