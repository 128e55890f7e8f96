package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/statelab/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	Loads          prometheus.Counter
	Transitions    *prometheus.CounterVec
	ActionFailures *prometheus.CounterVec
	NoTransitions  *prometheus.CounterVec
	Undos          prometheus.Counter
	ActionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Loads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statelab_loads_total",
			Help: "Total number of configuration loads and resets",
		}),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statelab_transitions_total",
				Help: "Total number of committed transitions",
			},
			[]string{"from", "to", "event"},
		),
		ActionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statelab_action_failures_total",
				Help: "Total number of transitions aborted by their action",
			},
			[]string{"state", "event"},
		),
		NoTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statelab_unhandled_events_total",
				Help: "Total number of events without a transition in the current state",
			},
			[]string{"state", "event"},
		),
		Undos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statelab_undos_total",
			Help: "Total number of effective undos",
		}),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statelab_action_duration_seconds",
				Help:    "Duration of transition actions",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"event"},
		),
	}
	m.registry.MustRegister(m.Loads, m.Transitions, m.ActionFailures, m.NoTransitions, m.Undos, m.ActionDuration)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoad: func(context.Context, string) {
			m.Loads.Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.From, e.To, e.Event).Inc()
			if e.ActionDuration > 0 {
				m.ActionDuration.WithLabelValues(e.Event).Observe(e.ActionDuration.Seconds())
			}
		},
		OnActionError: func(_ context.Context, e *domain.ActionErrorEvent) {
			m.ActionFailures.WithLabelValues(e.State, e.Event).Inc()
			m.ActionDuration.WithLabelValues(e.Event).Observe(e.Duration.Seconds())
		},
		OnNoTransition: func(_ context.Context, state, event string) {
			m.NoTransitions.WithLabelValues(state, event).Inc()
		},
		OnUndo: func(context.Context, string) {
			m.Undos.Inc()
		},
	}
}
