// Package metrics exposes Prometheus counters for the intent engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/roach88/jokebox/internal/ir"
)

// Collector holds all Prometheus metrics for a jokebox engine.
//
// Each collector owns its own registry so tests and multiple engines in one
// process never collide on registration.
type Collector struct {
	registry *prometheus.Registry

	Intents  *prometheus.CounterVec // applied intents by kind
	Noops    *prometheus.CounterVec // intents naming an unknown id, by kind
	Rejected prometheus.Counter     // intents the engine refused
	Records  prometheus.Gauge       // records in the current sequence
}

// NewCollector creates a collector with the given namespace and registers
// its metrics on a private registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Total number of intents applied to the record store",
			},
			[]string{"kind"},
		),
		Noops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "noop_intents_total",
				Help:      "Intents that named a record id not present in the sequence",
			},
			[]string{"kind"},
		),
		Rejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_intents_total",
				Help:      "Intents rejected before reaching the record store",
			},
		),
		Records: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records",
				Help:      "Number of records in the current sequence",
			},
		),
	}

	c.registry.MustRegister(c.Intents, c.Noops, c.Rejected, c.Records)

	// Pre-create label values so every kind shows up at zero.
	for _, kind := range ir.IntentKinds {
		c.Intents.WithLabelValues(string(kind))
		c.Noops.WithLabelValues(string(kind))
	}

	return c
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveTransition records one applied transition.
func (c *Collector) ObserveTransition(tr ir.Transition) {
	kind := string(tr.Intent.Kind)
	c.Intents.WithLabelValues(kind).Inc()
	if !tr.Applied {
		c.Noops.WithLabelValues(kind).Inc()
	}
	c.Records.Set(float64(tr.Size))
}

// ObserveRejected records one refused intent.
func (c *Collector) ObserveRejected() {
	c.Rejected.Inc()
}

// Snapshot is a plain copy of the collector's values.
type Snapshot struct {
	Intents  map[string]int64 `json:"intents"`
	Noops    map[string]int64 `json:"noops"`
	Rejected int64            `json:"rejected"`
	Records  int64            `json:"records"`
}

// Snapshot reads the current metric values.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		Intents: make(map[string]int64, len(ir.IntentKinds)),
		Noops:   make(map[string]int64, len(ir.IntentKinds)),
	}
	for _, kind := range ir.IntentKinds {
		s.Intents[string(kind)] = counterValue(c.Intents.WithLabelValues(string(kind)))
		s.Noops[string(kind)] = counterValue(c.Noops.WithLabelValues(string(kind)))
	}
	s.Rejected = counterValue(c.Rejected)
	s.Records = gaugeValue(c.Records)
	return s
}

func counterValue(m prometheus.Metric) int64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil || out.Counter == nil {
		return 0
	}
	return int64(out.Counter.GetValue())
}

func gaugeValue(m prometheus.Metric) int64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil || out.Gauge == nil {
		return 0
	}
	return int64(out.Gauge.GetValue())
}
