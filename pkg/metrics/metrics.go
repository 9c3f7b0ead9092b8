// Package metrics exposes the transmission policy manager's scheduling
// debug events as Prometheus instrumentation, the way
// engine/monitoring.PrometheusExporter exposes business metrics for a
// caller-supplied registry rather than the global default one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/auriora/telemetrypm/pkg/tpm"
)

// Observer implements tpm.DebugObserver by recording every debug event as
// a Prometheus counter keyed by kind, plus a histogram of the delay
// argument for the two backoff-driven outcomes.
type Observer struct {
	namespace string
	registry  *prometheus.Registry

	events       *prometheus.CounterVec
	backoffDelay *prometheus.HistogramVec
	pending      prometheus.Gauge
}

// NewObserver creates an Observer and registers its collectors with a
// fresh registry.
func NewObserver(namespace string) *Observer {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_events_total",
			Help:      "Total number of transmission policy manager debug events, by kind.",
		},
		[]string{"kind"},
	)

	backoffDelay := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_retry_delay_ms",
			Help:      "Delay in milliseconds chosen for a retried upload, by outcome kind.",
			Buckets:   prometheus.ExponentialBuckets(1000, 2, 10),
		},
		[]string{"kind"},
	)

	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_backpressure_total",
		Help:      "Number of times scheduling was refused due to a full upload registry.",
	})

	registry.MustRegister(events, backoffDelay, pending)

	return &Observer{
		namespace:    namespace,
		registry:     registry,
		events:       events,
		backoffDelay: backoffDelay,
		pending:      pending,
	}
}

// Registry returns the Prometheus registry the Observer's collectors are
// registered against, for mounting behind promhttp.HandlerFor.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// OnDebugEvent implements tpm.DebugObserver.
func (o *Observer) OnDebugEvent(kind string, param1, param2 int64) {
	o.events.WithLabelValues(kind).Inc()

	switch kind {
	case "upload_failed", "upload_rejected":
		o.backoffDelay.WithLabelValues(kind).Observe(float64(param1))
	case "backpressure":
		o.pending.Inc()
	}
}

var _ tpm.DebugObserver = (*Observer)(nil)
