// Package observability exposes registry lifecycle activity as
// Prometheus metrics, attached through domain.LifecycleHooks so the
// core stays free of any metrics dependency.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/tether/pkg/domain"
)

// Metrics counts lifecycle events for one registry.
type Metrics struct {
	applies       prometheus.Counter
	revokes       prometheus.Counter
	applyFailures prometheus.Counter
	hookFailures  *prometheus.CounterVec
	live          prometheus.Gauge
}

// NewMetrics registers the lifecycle metrics for a registry bound to
// tag against reg.
func NewMetrics(reg prometheus.Registerer, tag domain.Tag) *Metrics {
	labels := prometheus.Labels{"tag": string(tag)}
	factory := promauto.With(reg)

	return &Metrics{
		applies: factory.NewCounter(prometheus.CounterOpts{
			Name:        "tether_applies_total",
			Help:        "Objects successfully applied.",
			ConstLabels: labels,
		}),
		revokes: factory.NewCounter(prometheus.CounterOpts{
			Name:        "tether_revokes_total",
			Help:        "Objects revoked.",
			ConstLabels: labels,
		}),
		applyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name:        "tether_apply_failures_total",
			Help:        "Applies aborted by construction failure or an unresolved class.",
			ConstLabels: labels,
		}),
		hookFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "tether_hook_failures_total",
			Help:        "Contained lifecycle hook and method failures.",
			ConstLabels: labels,
		}, []string{"hook"}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "tether_live_objects",
			Help:        "Currently tracked objects.",
			ConstLabels: labels,
		}),
	}
}

// Hooks returns the lifecycle hooks that feed these metrics. Merge them
// with any caller-supplied hooks via domain.LifecycleHooks.Merge.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnApply: func(e domain.Entity, obj any) {
			m.applies.Inc()
			m.live.Inc()
		},
		OnRevoke: func(e domain.Entity) {
			m.revokes.Inc()
			m.live.Dec()
		},
		OnApplyFailed: func(e domain.Entity, err error) {
			m.applyFailures.Inc()
		},
		OnHookError: func(e domain.Entity, hook string, err error) {
			m.hookFailures.WithLabelValues(hook).Inc()
		},
	}
}
