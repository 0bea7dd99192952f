package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"terrain-streamer/internal/terrain"
)

// Metrics holds Prometheus counters and gauges for the terrain streamer. It
// implements terrain.Observer so streams report into it directly.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      *prometheus.CounterVec
	errorsTotal        prometheus.Counter
	segmentsSpawned    *prometheus.CounterVec
	segmentsRecycled   *prometheus.CounterVec
	poolConstructions  prometheus.Counter
	poolReuses         prometheus.Counter
	invariantViolation *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

// New creates and registers the streamer metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_requests_total",
			Help: "Total number of HTTP requests received, by route",
		}, []string{"route"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		segmentsSpawned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_segments_spawned_total",
			Help: "Segments placed in the world, by template",
		}, []string{"template"}),
		segmentsRecycled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_segments_recycled_total",
			Help: "Segments evicted and returned to the pool, by template",
		}, []string{"template"}),
		poolConstructions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_pool_constructions_total",
			Help: "Pool misses that constructed a new instance",
		}),
		poolReuses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_pool_reuses_total",
			Help: "Pool hits that reactivated an idle instance",
		}),
		invariantViolation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_invariant_violations_total",
			Help: "Invariant violations reported by streams, by kind",
		}, []string{"kind"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_active_sessions",
			Help: "Number of sessions that are not ended",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.segmentsSpawned,
		m.segmentsRecycled,
		m.poolConstructions,
		m.poolReuses,
		m.invariantViolation,
		m.activeSessions,
	)
	return m
}

// SegmentSpawned implements terrain.Observer.
func (m *Metrics) SegmentSpawned(id terrain.TemplateID, reused bool) {
	m.segmentsSpawned.WithLabelValues(strconv.Itoa(int(id))).Inc()
	if reused {
		m.poolReuses.Inc()
	} else {
		m.poolConstructions.Inc()
	}
}

// SegmentRecycled implements terrain.Observer.
func (m *Metrics) SegmentRecycled(id terrain.TemplateID) {
	m.segmentsRecycled.WithLabelValues(strconv.Itoa(int(id))).Inc()
}

// InvariantViolated implements terrain.Observer.
func (m *Metrics) InvariantViolated(err error) {
	m.invariantViolation.WithLabelValues(violationKind(err)).Inc()
}

func violationKind(err error) string {
	switch {
	case errors.Is(err, terrain.ErrUnregisteredTemplate):
		return "unregistered_template"
	case errors.Is(err, terrain.ErrDoubleRelease):
		return "double_release"
	case errors.Is(err, terrain.ErrEvictionMismatch):
		return "eviction_mismatch"
	default:
		return "other"
	}
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncRequests increments the request counter for route.
func (m *Metrics) IncRequests(route string) {
	m.requestsTotal.WithLabelValues(route).Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}
