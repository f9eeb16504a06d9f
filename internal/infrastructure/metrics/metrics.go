package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	Commits        *prometheus.CounterVec
	CommitAttempts *prometheus.HistogramVec
	CommitDuration *prometheus.HistogramVec
	Conflicts      *prometheus.CounterVec
	Failures       *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		Commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkledger_commits_total",
				Help: "Total committed ledger operations",
			},
			[]string{"operation"},
		),
		CommitAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkledger_commit_attempts",
				Help:    "Attempts needed per committed operation",
				Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
			},
			[]string{"operation"},
		),
		CommitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkledger_commit_duration_seconds",
				Help:    "Duration of ledger operations including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkledger_conflicts_total",
				Help: "Conditional commits rejected by a concurrent writer",
			},
			[]string{"operation"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkledger_failures_total",
				Help: "Failed ledger operations by reason",
			},
			[]string{"operation", "reason"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkledger_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkledger_outbox_errors_total",
			Help: "Outbox publish failures",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
	}
}

// ObserveCommit records a committed operation.
func (m *Metrics) ObserveCommit(operation string, attempts int, duration time.Duration) {
	m.Commits.WithLabelValues(operation).Inc()
	m.CommitAttempts.WithLabelValues(operation).Observe(float64(attempts))
	m.CommitDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncConflict counts one rejected conditional commit.
func (m *Metrics) IncConflict(operation string) {
	m.Conflicts.WithLabelValues(operation).Inc()
}

// IncFailure counts a failed operation.
func (m *Metrics) IncFailure(operation, reason string) {
	m.Failures.WithLabelValues(operation, reason).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
