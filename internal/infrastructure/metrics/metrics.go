package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/walletledger/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	LockWait          prometheus.Histogram
	StorageRetries    prometheus.Counter

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_operations_total",
				Help: "Total submitted operations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_operation_duration_seconds",
				Help:    "End-to-end duration of submitted operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_wallet_lock_wait_seconds",
			Help:    "Time spent waiting for a wallet lock",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		StorageRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_storage_retries_total",
			Help: "Total retried storage transactions",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "walletledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// RecordOperation implements usecase.Metrics.
func (m *Metrics) RecordOperation(kind domain.OperationKind, outcome string, duration time.Duration) {
	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	m.Operations.WithLabelValues(label, outcome).Inc()
	m.OperationDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordLockWait implements usecase.Metrics.
func (m *Metrics) RecordLockWait(duration time.Duration) {
	m.LockWait.Observe(duration.Seconds())
}

// RecordRetry implements usecase.Metrics.
func (m *Metrics) RecordRetry() {
	m.StorageRetries.Inc()
}
