package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentgate",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"service", "method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talentgate",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "method", "path", "status"})

	interviewsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talentgate",
		Name:      "interviews_started_total",
		Help:      "Total number of interview sessions created",
	})

	interviewsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentgate",
		Name:      "interviews_completed_total",
		Help:      "Total number of interviews that reached their verdict",
	}, []string{"verdict"})

	oracleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentgate",
		Name:      "oracle_errors_total",
		Help:      "Total number of failed calls to the reasoning service",
	}, []string{"operation"})

	evaluationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talentgate",
		Name:      "evaluation_fallbacks_total",
		Help:      "Total number of answer evaluations recovered from a malformed oracle reply",
	})
)

// InterviewStarted records one created session.
func InterviewStarted() {
	interviewsStarted.Inc()
}

// InterviewCompleted records one finished interview with its verdict.
func InterviewCompleted(passed bool) {
	verdict := "failed"
	if passed {
		verdict = "passed"
	}
	interviewsCompleted.WithLabelValues(verdict).Inc()
}

// OracleError records one failed reasoning-service call.
func OracleError(operation string) {
	oracleErrors.WithLabelValues(operation).Inc()
}

// EvaluationFallback records one malformed-reply recovery.
func EvaluationFallback() {
	evaluationFallbacks.Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request metrics with Prometheus labels.
func Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			labels := prometheus.Labels{
				"service": service,
				"method":  r.Method,
				"path":    r.URL.Path,
				"status":  strconv.Itoa(rec.status),
			}

			httpRequests.With(labels).Inc()
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
