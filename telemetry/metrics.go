package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes live simulation counters to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	breaths      prometheus.Counter
	stepFailures prometheus.Counter
	transitions  *prometheus.CounterVec
	organisms    prometheus.Gauge
	suffocating  prometheus.Gauge
	pressure     *prometheus.GaugeVec
	tickSeconds  prometheus.Histogram
}

// NewMetrics creates the metric set on its own registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks completed.",
		}),
		breaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaths_total",
			Help:      "Breath cycles run across all organisms.",
		}),
		stepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Organism steps aborted by an error.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "respirator_transitions_total",
			Help:      "Respirator status changes by kind.",
		}, []string{"kind"}),
		organisms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "organisms",
			Help:      "Living organisms.",
		}),
		suffocating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suffocating_organisms",
			Help:      "Organisms currently suffocating.",
		}),
		pressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "region_pressure_kpa",
			Help:      "Total pressure of each region's environment.",
		}, []string{"region"}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time per simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
	m.registry.MustRegister(
		m.ticks, m.breaths, m.stepFailures, m.transitions,
		m.organisms, m.suffocating, m.pressure, m.tickSeconds,
	)
	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry (for tests and extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTick records one finished tick.
func (m *Metrics) ObserveTick(seconds float64, breaths, failures int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickSeconds.Observe(seconds)
	m.breaths.Add(float64(breaths))
	m.stepFailures.Add(float64(failures))
}

// ObserveTransition counts a respirator status change ("suffocate" or "recover").
func (m *Metrics) ObserveTransition(kind string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind).Inc()
}

// SetPopulation updates the population gauges.
func (m *Metrics) SetPopulation(organisms, suffocating int) {
	if m == nil {
		return
	}
	m.organisms.Set(float64(organisms))
	m.suffocating.Set(float64(suffocating))
}

// SetRegionPressure updates one region's pressure gauge.
func (m *Metrics) SetRegionPressure(region string, kPa float64) {
	if m == nil {
		return
	}
	m.pressure.WithLabelValues(region).Set(kPa)
}
