// Package metrics provides Prometheus metrics for schema assembly and GraphQL
// requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Dawdaborje/sorobonto-backend/compose"
)

const namespace = "sorobonto"

// Collector holds all Prometheus metrics. It implements registry.Observer.
type Collector struct {
	// Assembly metrics
	ModuleOutcomes      *prometheus.CounterVec
	Capabilities        *prometheus.CounterVec
	CompositionFailures prometheus.Counter
	RootFields          *prometheus.GaugeVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ModuleOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_outcomes_total",
				Help:      "Modules resolved, by outcome status",
			},
			[]string{"status"},
		),
		Capabilities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capabilities_total",
				Help:      "Capabilities contributed by loaded modules, by kind",
			},
			[]string{"kind"},
		),
		CompositionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "composition_failures_total",
				Help:      "Total number of failed schema compositions",
			},
		),
		RootFields: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "root_fields",
				Help:      "Number of fields on each root of the composed schema",
			},
			[]string{"root"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graphql_requests_total",
				Help:      "Total number of GraphQL requests executed",
			},
			[]string{"result"},
		),
		RequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graphql_request_duration_seconds",
				Help:      "GraphQL request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
	}
}

// ObserveOutcome counts a resolved module.
func (c *Collector) ObserveOutcome(module, status string) {
	c.ModuleOutcomes.WithLabelValues(status).Inc()
}

// ObserveCapability counts a contributed capability.
func (c *Collector) ObserveCapability(module, kind string) {
	c.Capabilities.WithLabelValues(kind).Inc()
}

// ObserveComposition records the result of compose.Compose.
func (c *Collector) ObserveComposition(schema *compose.Schema, err error) {
	if err != nil {
		c.CompositionFailures.Inc()
		return
	}
	c.RootFields.WithLabelValues(schema.Query().Name()).Set(float64(len(schema.Query().FieldNames())))
	c.RootFields.WithLabelValues(schema.Mutation().Name()).Set(float64(len(schema.Mutation().FieldNames())))
}

// ObserveRequest records one executed GraphQL request.
func (c *Collector) ObserveRequest(d time.Duration, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	c.RequestsTotal.WithLabelValues(result).Inc()
	c.RequestDuration.Observe(d.Seconds())
}
