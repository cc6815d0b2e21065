// Package metrics exposes Prometheus metrics for the HTTP API, the QnA
// pipeline and ingestion.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qna"

// Metrics owns a private registry and every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askTotal        *prometheus.CounterVec
	askNoContext    *prometheus.CounterVec
	askDuration     *prometheus.HistogramVec
	askCitations    *prometheus.HistogramVec
	ingestedChunks  *prometheus.CounterVec
	ingestedSources *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		requestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		}),
		askTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total ask requests by retrieval mode and outcome.",
		}, []string{"mode", "outcome"}),
		askNoContext: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "no_context_total",
			Help:      "Ask requests that produced no citations.",
		}, []string{"mode"}),
		askDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Ask pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		askCitations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "citations",
			Help:      "Citations returned per successful ask request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}, []string{"mode"}),
		ingestedChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks written by ingestion.",
		}, []string{"source_id"}),
		ingestedSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sources_total",
			Help:      "Source documents processed by ingestion, by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.askTotal,
		m.askNoContext,
		m.askDuration,
		m.askCitations,
		m.ingestedChunks,
		m.ingestedSources,
	)
	return m
}

// Registry returns the registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count, duration and in-flight requests. Paths
// are labeled by chi route pattern to bound cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordAsk records one ask request. outcome is "ok", "invalid" or "error".
func (m *Metrics) RecordAsk(mode, outcome string, citations int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.askTotal.WithLabelValues(mode, outcome).Inc()
	m.askDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if outcome != "ok" {
		return
	}
	m.askCitations.WithLabelValues(mode).Observe(float64(citations))
	if citations == 0 {
		m.askNoContext.WithLabelValues(mode).Inc()
	}
}

// RecordIngest records the ingestion of one source document. outcome is
// "indexed", "skipped" or "error".
func (m *Metrics) RecordIngest(sourceID, outcome string, chunks int) {
	m.ingestedSources.WithLabelValues(outcome).Inc()
	if chunks > 0 {
		m.ingestedChunks.WithLabelValues(sourceID).Add(float64(chunks))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
