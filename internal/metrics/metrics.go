package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dockerlab/internal/util"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"service", "path", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "path", "method"},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, cacheLookups)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count and latency per route.
func Instrument(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := util.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		path, method := RouteLabel(r), methodLabel(r.Method)
		httpRequests.WithLabelValues(service, path, method, strconv.Itoa(rec.Code())).Inc()
		httpDuration.WithLabelValues(service, path, method).Observe(time.Since(start).Seconds())
	})
}

// CacheHit counts a cache hit.
func CacheHit() { cacheLookups.WithLabelValues("hit").Inc() }

// CacheMiss counts a cache miss, including an unreachable cache.
func CacheMiss() { cacheLookups.WithLabelValues("miss").Inc() }

// UnmatchedRoute labels requests no registered pattern served.
const UnmatchedRoute = "unmatched"

// RouteLabel returns the ServeMux pattern that served r. It must be read
// after the mux has handled r. Raw paths are never used as labels.
func RouteLabel(r *http.Request) string {
	if r == nil || r.Pattern == "" {
		return UnmatchedRoute
	}
	return r.Pattern
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "OTHER"
	}
}
