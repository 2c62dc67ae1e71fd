package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// Init registers the metrics with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration)
	})
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps a handler with request count/latency/in-flight tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier segments so per-resource paths do not
// explode label cardinality.
func CanonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "/api/posts/stream" {
		return p
	}
	prefixes := []struct{ prefix, label string }{
		{"/api/posts/comment/", "/api/posts/comment/:id"},
		{"/api/posts/like/", "/api/posts/like/:id"},
		{"/api/posts/unlike/", "/api/posts/unlike/:id"},
		{"/api/posts/", "/api/posts/:id"},
		{"/api/profile/handle/", "/api/profile/handle/:handle"},
		{"/api/profile/user/", "/api/profile/user/:id"},
		{"/api/profile/experience/", "/api/profile/experience/:id"},
		{"/api/profile/education/", "/api/profile/education/:id"},
	}
	for _, e := range prefixes {
		if strings.HasPrefix(p, e.prefix) && len(p) > len(e.prefix) {
			return e.label
		}
	}
	return p
}

// statusWriter captures the response code for labelling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
