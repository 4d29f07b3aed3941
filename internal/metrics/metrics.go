package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthsat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "earthsat_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "earthsat_propagation_duration_seconds",
			Help:    "Duration of a fleet propagation batch in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	propagationResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthsat_propagation_results_total",
			Help: "Satellite propagation outcomes.",
		},
		[]string{"result"},
	)

	passPredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "earthsat_pass_prediction_duration_seconds",
			Help:    "Duration of a pass prediction search in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "earthsat_catalog_satellites",
			Help: "Number of satellites in the loaded element catalog.",
		},
	)

	catalogSkips = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earthsat_catalog_skipped_records_total",
			Help: "Element records skipped during catalog parsing.",
		},
	)

	catalogAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "earthsat_catalog_age_seconds",
			Help: "Age of the loaded element catalog in seconds.",
		},
	)

	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earthsat_cache_hits_total",
			Help: "Fleet snapshot cache hits.",
		},
	)

	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earthsat_cache_misses_total",
			Help: "Fleet snapshot cache misses.",
		},
	)

	cacheRefreshErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earthsat_cache_refresh_errors_total",
			Help: "Failed fleet snapshot refreshes.",
		},
	)

	cacheSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "earthsat_cache_satellites",
			Help: "Satellites in the latest fleet snapshot.",
		},
	)

	streamConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthsat_stream_connections_total",
			Help: "SSE stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "earthsat_streams_active",
			Help: "Currently connected SSE streams.",
		},
	)

	streamMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earthsat_stream_messages_total",
			Help: "SSE messages sent.",
		},
	)

	streamBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earthsat_stream_bytes_total",
			Help: "SSE payload bytes sent.",
		},
	)

	streamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthsat_stream_errors_total",
			Help: "SSE stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		propagationDuration,
		propagationResults,
		passPredictionDuration,
		catalogSize,
		catalogSkips,
		catalogAge,
		cacheHits,
		cacheMisses,
		cacheRefreshErrors,
		cacheSatellites,
		streamConnections,
		streamsActive,
		streamMessages,
		streamBytes,
		streamErrors,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPropagation records one fleet propagation batch.
func RecordPropagation(d time.Duration, success, failed int) {
	propagationDuration.Observe(d.Seconds())
	propagationResults.WithLabelValues("success").Add(float64(success))
	propagationResults.WithLabelValues("error").Add(float64(failed))
}

// ObservePassPrediction records the duration of one pass search.
func ObservePassPrediction(d time.Duration) {
	passPredictionDuration.Observe(d.Seconds())
}

// SetCatalogSize publishes the satellite count of the loaded catalog.
func SetCatalogSize(n int) { catalogSize.Set(float64(n)) }

// AddCatalogSkips counts records rejected during catalog parsing.
func AddCatalogSkips(n int) { catalogSkips.Add(float64(n)) }

// SetCatalogAge publishes the catalog age in seconds.
func SetCatalogAge(seconds float64) { catalogAge.Set(seconds) }

// Cache counters.

func IncCacheHits()         { cacheHits.Inc() }
func IncCacheMisses()       { cacheMisses.Inc() }
func IncCacheRefreshError() { cacheRefreshErrors.Inc() }
func SetCacheSatellites(n int) {
	cacheSatellites.Set(float64(n))
}

// Stream counters.

func IncStreamConnections(event string) { streamConnections.WithLabelValues(event).Inc() }
func IncStreamsActive()                 { streamsActive.Inc() }
func DecStreamsActive()                 { streamsActive.Dec() }
func IncStreamMessages()                { streamMessages.Inc() }
func AddStreamBytes(n int64)            { streamBytes.Add(float64(n)) }
func IncStreamErrors(reason string)     { streamErrors.WithLabelValues(reason).Inc() }

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// long-lived SSE connections need for write deadline control.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// knownRoutes are the exact paths the server registers. Anything else is
// labeled "other" to keep metric cardinality bounded against bot scans.
var knownRoutes = map[string]bool{
	"/healthz":                 true,
	"/readyz":                  true,
	"/metrics":                 true,
	"/api/v1/satellites":       true,
	"/api/v1/position":         true,
	"/api/v1/visibility":       true,
	"/api/v1/passes":           true,
	"/api/v1/track":            true,
	"/api/v1/fleet":            true,
	"/api/v1/catalog":          true,
	"/api/v1/stream/positions": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
