// Package metrics exposes engine lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	nodeVisits   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	suspends     *prometheus.CounterVec
	completions  prometheus.Counter
	callFailures *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node executions.",
		}, []string{"node"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node handlers, including collaborator calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		suspends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspends_total",
			Help:      "Total number of suspensions awaiting input, by the node that will resume.",
		}, []string{"node"}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of sessions that reached the end.",
		}),
		callFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_call_failures_total",
			Help:      "Failed classifier or generator attempts.",
		}, []string{"op", "kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_call_fallbacks_total",
			Help:      "Calls that exhausted their attempts and used the fallback value.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.nodeVisits,
		m.nodeDuration,
		m.suspends,
		m.completions,
		m.callFailures,
		m.fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnSuspend: func(_ context.Context, e *domain.NodeEvent) {
			m.suspends.WithLabelValues(e.Node).Inc()
		},
		OnComplete: func(context.Context, *domain.NodeEvent) {
			m.completions.Inc()
		},
		OnCallFailed: func(_ context.Context, e *domain.CallEvent) {
			m.callFailures.WithLabelValues(e.Op, string(e.Kind)).Inc()
		},
		OnFallback: func(_ context.Context, e *domain.CallEvent) {
			m.fallbacks.WithLabelValues(e.Op).Inc()
		},
	}
}
