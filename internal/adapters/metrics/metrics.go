// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

var (
	_ ports.Metrics = (*Prometheus)(nil)
	_ ports.Metrics = (*NoOp)(nil)
)

// Prometheus records coordinator activity on its own registry.
type Prometheus struct {
	registry      *prometheus.Registry
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
	changes       *prometheus.CounterVec
	evictions     prometheus.Counter
	dropped       prometheus.Counter
}

// NewPrometheus creates the collectors and registers them on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "batches_total",
			Help:      "Computed coordinator batches.",
		}, []string{"rebuilt"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stencil",
			Name:      "batch_duration_seconds",
			Help:      "Time spent computing one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "resolution_changes_total",
			Help:      "Effective resolution changes by type.",
		}, []string{"type"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "flatten_evictions_total",
			Help:      "Flatten cache entries evicted by batches.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stencil",
			Name:      "publications_dropped_total",
			Help:      "Publications a subscriber was too slow to receive.",
		}),
	}
	p.registry.MustRegister(p.batches, p.batchDuration, p.changes, p.evictions, p.dropped)
	return p
}

// BatchCompleted records one computed batch.
func (p *Prometheus) BatchCompleted(d time.Duration, rebuilt bool) {
	label := "false"
	if rebuilt {
		label = "true"
	}
	p.batches.WithLabelValues(label).Inc()
	p.batchDuration.Observe(d.Seconds())
}

// ResolutionChanged records one resolution change.
func (p *Prometheus) ResolutionChanged(t domain.ChangeType) {
	p.changes.WithLabelValues(t.String()).Inc()
}

// FlattenEvicted records evicted flatten entries.
func (p *Prometheus) FlattenEvicted(n int) {
	if n > 0 {
		p.evictions.Add(float64(n))
	}
}

// PublicationDropped records a dropped publication.
func (p *Prometheus) PublicationDropped() {
	p.dropped.Inc()
}

// Registry returns the registry holding the collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NoOp discards all measurements.
type NoOp struct{}

// BatchCompleted does nothing.
func (NoOp) BatchCompleted(time.Duration, bool) {}

// ResolutionChanged does nothing.
func (NoOp) ResolutionChanged(domain.ChangeType) {}

// FlattenEvicted does nothing.
func (NoOp) FlattenEvicted(int) {}

// PublicationDropped does nothing.
func (NoOp) PublicationDropped() {}
