package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Evaluations counts segment rule evaluations by outcome
	// (match, no_match, unknown, error).
	Evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_evaluations_total",
		Help: "Total segment rule evaluations by outcome",
	}, []string{"outcome"})

	ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rule_parse_errors_total",
		Help: "Total rule texts rejected by the parser",
	})

	RuleCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rule_cache_entries",
		Help: "Number of parsed rules currently cached",
	})

	SnapshotSegments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_segments",
		Help: "Number of segments currently in the in-memory snapshot",
	})

	SSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_clients",
		Help: "Number of currently connected SSE clients",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, Evaluations, ParseErrors, RuleCacheEntries, SnapshotSegments, SSEClients)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
