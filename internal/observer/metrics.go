package observer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts renderer and registry events with Prometheus counters.
type Metrics struct {
	renders       *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	registrations *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bleak",
			Name:      "renders_total",
			Help:      "Questions resolved to a registered element.",
		}, []string{"type", "element"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bleak",
			Name:      "fallbacks_total",
			Help:      "Questions resolved to the fallback element.",
		}, []string{"type"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bleak",
			Name:      "registrations_total",
			Help:      "Registry changes by question type and event.",
		}, []string{"type", "event"}),
	}

	for _, c := range []prometheus.Collector{m.renders, m.fallbacks, m.registrations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) OnComponentRender(e RenderEvent) {
	m.renders.WithLabelValues(e.QuestionType, e.Element).Inc()
}

func (m *Metrics) OnFallback(e FallbackEvent) {
	m.fallbacks.WithLabelValues(e.QuestionType).Inc()
}

func (m *Metrics) OnRegister(e RegisterEvent) {
	m.registrations.WithLabelValues(e.QuestionType, string(e.Event)).Inc()
}
