package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glazehub",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glazehub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glazehub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	postsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "glazehub",
			Subsystem: "feed",
			Name:      "posts_created_total",
			Help:      "Total number of posts created.",
		},
	)

	commentsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glazehub",
			Subsystem: "praise",
			Name:      "comments_generated_total",
			Help:      "Total number of generated comments by source.",
		},
		[]string{"source"},
	)

	remoteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glazehub",
			Subsystem: "praise",
			Name:      "remote_failures_total",
			Help:      "Remote generation attempts that fell back locally.",
		},
		[]string{"reason"},
	)

	simulationsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glazehub",
			Subsystem: "engagement",
			Name:      "simulations_active",
			Help:      "Number of engagement simulators currently running.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		postsCreated,
		commentsGenerated,
		remoteFailures,
		simulationsActive,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordPostCreated counts a successfully created post.
func RecordPostCreated() {
	postsCreated.Inc()
}

// RecordCommentGeneration counts generated comments by source.
func RecordCommentGeneration(source string, count int) {
	if count <= 0 {
		return
	}
	commentsGenerated.WithLabelValues(source).Add(float64(count))
}

// RecordRemoteFailure counts a remote generation attempt that fell back.
func RecordRemoteFailure(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	remoteFailures.WithLabelValues(reason).Inc()
}

// SimulationStarted and SimulationStopped track running simulators.
func SimulationStarted() { simulationsActive.Inc() }
func SimulationStopped() { simulationsActive.Dec() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "posts" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/posts"
	}
	if len(parts) == 2 {
		return "/posts/:post"
	}
	resource := parts[2]
	if resource == "comments" && len(parts) > 3 {
		return "/posts/:post/comments/:comment"
	}
	return "/posts/:post/" + resource
}
