package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/guidepost/pkg/domain"
)

// Metrics holds the engine collectors on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	stepEntries  *prometheus.CounterVec
	interactions *prometheus.CounterVec
	discarded    *prometheus.CounterVec
	effects      *prometheus.HistogramVec
	currentStep  *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guidepost_step_entries_total",
			Help: "Total number of step entries",
		}, []string{"step"}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guidepost_interactions_total",
			Help: "Interactions taken off the bus",
		}, []string{"kind"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guidepost_interactions_discarded_total",
			Help: "Interactions that matched no transition of the current step",
		}, []string{"step"}),
		effects: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guidepost_effect_duration_seconds",
			Help:    "Duration of side effects",
			Buckets: prometheus.DefBuckets,
		}, []string{"component", "function", "phase", "outcome"}),
		currentStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "guidepost_current_step",
			Help: "1 for the step the run is waiting in",
		}, []string{"step"}),
	}
	m.registry.MustRegister(m.stepEntries, m.interactions, m.discarded, m.effects, m.currentStep)
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

// Hooks records engine events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.stepEntries.WithLabelValues(e.Step).Inc()
			m.currentStep.WithLabelValues(e.Step).Set(1)
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.currentStep.WithLabelValues(e.Step).Set(0)
		},
		OnInteraction: func(_ context.Context, e *domain.InteractionEvent) {
			m.interactions.WithLabelValues(e.Interaction.Kind).Inc()
		},
		OnDiscard: func(_ context.Context, e *domain.InteractionEvent) {
			m.discarded.WithLabelValues(e.Step).Inc()
		},
		OnEffect: func(_ context.Context, e *domain.EffectEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.effects.WithLabelValues(e.Effect.Component, e.Effect.Function, e.Phase, outcome).
				Observe(e.Duration.Seconds())
		},
	}
}
