package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the claims engine.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInflight prometheus.Gauge

	TransitionsTotal *prometheus.CounterVec
	VotesTotal       *prometheus.CounterVec
	DecisionsTotal   *prometheus.CounterVec
	ValidationErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanadhikar_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vanadhikar_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestsInflight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vanadhikar_http_requests_inflight",
				Help: "Currently running HTTP requests",
			},
		),
		TransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanadhikar_claim_transitions_total",
				Help: "Claim state transitions by edge and outcome",
			},
			[]string{"from", "to", "outcome"},
		),
		VotesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanadhikar_committee_votes_total",
				Help: "Committee votes cast by value",
			},
			[]string{"vote"},
		),
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanadhikar_decisions_total",
				Help: "Finalized decisions by type and mode (consensus or chair_override)",
			},
			[]string{"decision", "mode"},
		),
		ValidationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanadhikar_validation_errors_total",
				Help: "Stage validation failures by stage",
			},
			[]string{"stage"},
		),
	}
}

// ObserveTransition is nil-safe so services can run without metrics in tests.
func (m *Metrics) ObserveTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

func (m *Metrics) ObserveVote(vote string) {
	if m == nil {
		return
	}
	m.VotesTotal.WithLabelValues(vote).Inc()
}

func (m *Metrics) ObserveDecision(decision, mode string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(decision, mode).Inc()
}

func (m *Metrics) ObserveValidationFailure(stage string) {
	if m == nil {
		return
	}
	m.ValidationErrors.WithLabelValues(stage).Inc()
}

// GinMiddleware records request counts and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.RequestsInflight.Inc()
		c.Next()
		m.RequestsInflight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for the /metrics route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
