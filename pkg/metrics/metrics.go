package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neypot"

// Ingest outcomes used as the "outcome" label.
const (
	OutcomeAccepted        = "accepted"
	OutcomeRejectedMissing = "rejected_missing"
	OutcomeRejectedInvalid = "rejected_invalid"
	OutcomeRejectedRevoked = "rejected_revoked"
	OutcomeRejectedExpired = "rejected_expired"
	OutcomeError           = "error"
)

var (
	IngestEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_events_total",
		Help:      "Ingest requests by resolved service and outcome.",
	}, []string{"service", "outcome"})

	RiskScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_risk_score",
		Help:      "Risk score of accepted events.",
		Buckets:   []float64{0, 20, 40, 60, 80, 100},
	}, []string{"service"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveIngest records one ingest attempt. service is empty for rejections
// that happen before classification.
func ObserveIngest(service, outcome string) {
	if service == "" {
		service = "unknown"
	}
	IngestEvents.WithLabelValues(service, outcome).Inc()
}

func ObserveRisk(service string, score int) {
	RiskScores.WithLabelValues(service).Observe(float64(score))
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
