package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the address lookup step.
type Metrics struct {
	// Lookup outcomes by kind and failure reason ("" unless kind=failure)
	LookupOutcome *prometheus.CounterVec

	LookupLatency prometheus.Histogram

	// Phase transitions by origin and destination phase ("done" for exits)
	Transitions *prometheus.CounterVec

	// Completed sub-flows by address source ("lookup", "manual", "skipped")
	Completions *prometheus.CounterVec

	// Validation errors rendered back to the user by phase and code
	ValidationErrors *prometheus.CounterVec
}

// New registers the step metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg, so tests can use a private registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LookupOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_lookup_lookups_total",
			Help: "Postcode lookups by outcome and failure reason",
		}, []string{"outcome", "reason"}),

		LookupLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "address_lookup_lookup_duration_seconds",
			Help:    "Duration of outbound postcode lookups",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_lookup_transitions_total",
			Help: "Sub-flow phase transitions",
		}, []string{"from", "to"}),

		Completions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_lookup_completions_total",
			Help: "Completed address steps by address source",
		}, []string{"source"}),

		ValidationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_lookup_validation_errors_total",
			Help: "Validation errors shown to users by phase and code",
		}, []string{"phase", "code"}),
	}
}

// ObserveLookup records one lookup outcome and its duration.
func (m *Metrics) ObserveLookup(outcome, reason string, d time.Duration) {
	if m != nil {
		m.LookupOutcome.WithLabelValues(outcome, reason).Inc()
		m.LookupLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementCompletion(source string) {
	if m != nil {
		m.Completions.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IncrementValidationError(phase, code string) {
	if m != nil {
		m.ValidationErrors.WithLabelValues(phase, code).Inc()
	}
}
