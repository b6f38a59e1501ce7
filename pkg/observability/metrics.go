// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the meeting lifecycle core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the meeting lifecycle.
type Metrics struct {
	// Provisioning metrics
	ProvisionedTotal        prometheus.Counter
	ProvisionFailuresTotal  *prometheus.CounterVec
	ReconcileAttemptsTotal  prometheus.Counter
	ReconcileAbandonedTotal prometheus.Counter

	// Operation metrics
	OperationSeconds *prometheus.HistogramVec
}

// Failure reason labels for ProvisionFailuresTotal.
const (
	ReasonProviderRejected    = "provider_rejected"
	ReasonProviderUnavailable = "provider_unavailable"
	ReasonStorage             = "storage"
)

// DefaultMetrics creates metrics registered with the default registry.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of meeting lifecycle metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProvisionedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "parley_meetings_provisioned_total",
			Help: "Meetings whose remote call and participants were fully provisioned",
		}),
		ProvisionFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_meeting_provision_failures_total",
				Help: "Provisioning attempts that failed, by reason",
			},
			[]string{"reason"},
		),
		ReconcileAttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "parley_reconcile_attempts_total",
			Help: "Provisioning retries performed by the reconciler",
		}),
		ReconcileAbandonedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "parley_reconcile_abandoned_total",
			Help: "Meetings marked failed after exhausting provisioning retries",
		}),
		OperationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_operation_seconds",
				Help:    "Service operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}
