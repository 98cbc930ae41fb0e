// Package metrics holds the prometheus collectors for module discovery and
// activation. Collectors live on an explicit registry owned by the host.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collectors groups the runtime's prometheus instruments. A nil *Collectors
// is valid and records nothing.
type Collectors struct {
	Registry *prometheus.Registry

	discovered         prometheus.Counter
	discoveryWarnings  prometheus.Counter
	activations        *prometheus.CounterVec
	activationDuration prometheus.Histogram
	failures           *prometheus.CounterVec
	activeModules      prometheus.Gauge
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "latticebot_modules_discovered_total",
			Help: "Number of module candidates produced by discovery.",
		}),
		discoveryWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "latticebot_discovery_warnings_total",
			Help: "Number of plugin files skipped during discovery.",
		}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "latticebot_module_activations_total",
			Help: "Number of successful module activations by module.",
		}, []string{"module"}),
		activationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "latticebot_module_activation_duration_seconds",
			Help:    "Time spent in RegisterServices per module.",
			Buckets: prometheus.DefBuckets,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "latticebot_resolution_failures_total",
			Help: "Number of aborted resolution passes by failure kind.",
		}, []string{"kind"}),
		activeModules: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "latticebot_active_modules",
			Help: "Number of modules activated by the last resolution pass.",
		}),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.discovered,
		c.discoveryWarnings,
		c.activations,
		c.activationDuration,
		c.failures,
		c.activeModules,
	)
	return c
}

// Discovered records n discovered candidates.
func (c *Collectors) Discovered(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.discovered.Add(float64(n))
}

// DiscoveryWarning records a skipped plugin file.
func (c *Collectors) DiscoveryWarning() {
	if c == nil {
		return
	}
	c.discoveryWarnings.Inc()
}

// Activated records a successful activation.
func (c *Collectors) Activated(module string, took time.Duration) {
	if c == nil {
		return
	}
	c.activations.WithLabelValues(module).Inc()
	c.activationDuration.Observe(took.Seconds())
}

// Failed records an aborted resolution pass.
func (c *Collectors) Failed(kind string) {
	if c == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	c.failures.WithLabelValues(kind).Inc()
}

// SetActive records how many modules the last pass activated.
func (c *Collectors) SetActive(n int) {
	if c == nil {
		return
	}
	c.activeModules.Set(float64(n))
}
