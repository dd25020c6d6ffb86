package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/actbot/pkg/domain"
)

// Metrics holds the interview collectors.
type Metrics struct {
	registry *prometheus.Registry

	answers          *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	backs            prometheus.Counter
	lifecycle        *prometheus.CounterVec
	completions      *prometheus.CounterVec
	completedSavings prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actbot_answers_total",
			Help: "Accepted answers by stage answered.",
		}, []string{"stage"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actbot_rejections_total",
			Help: "Rejected answers by stage.",
		}, []string{"stage"}),
		backs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actbot_back_navigations_total",
			Help: "Back navigations.",
		}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actbot_lifecycle_events_total",
			Help: "Lifecycle transitions by resulting state.",
		}, []string{"state"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actbot_completions_total",
			Help: "Completed interviews by purchased tier.",
		}, []string{"tier"}),
		completedSavings: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actbot_completion_savings",
			Help:    "Estimated savings of completed interviews.",
			Buckets: []float64{500, 1000, 2500, 5000, 10000, 20000},
		}),
	}
	m.registry.MustRegister(m.answers, m.rejections, m.backs, m.lifecycle, m.completions, m.completedSavings)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnswerAccepted: func(_ context.Context, e *domain.StageEvent) {
			m.answers.WithLabelValues(strconv.Itoa(e.FromStage)).Inc()
		},
		OnAnswerRejected: func(_ context.Context, e *domain.StageEvent) {
			m.rejections.WithLabelValues(strconv.Itoa(e.FromStage)).Inc()
		},
		OnBack: func(_ context.Context, _ *domain.StageEvent) {
			m.backs.Inc()
		},
		OnLifecycle: func(_ context.Context, e *domain.LifecycleEvent) {
			m.lifecycle.WithLabelValues(string(e.State)).Inc()
			if e.State == domain.LifecycleCompleted {
				m.completions.WithLabelValues(e.Tier).Inc()
				m.completedSavings.Observe(e.Score.Savings)
			}
		},
	}
}
