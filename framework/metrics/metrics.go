// Package metrics provides Prometheus metrics for resolution passes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-composer/framework/container"
)

// Collector holds all composer metrics. It observes resolutions, cache
// lookups and catalog reloads.
type Collector struct {
	registry *prometheus.Registry

	// Resolution metrics
	Resolutions        *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	Conflicts          *prometheus.CounterVec
	Definitions        *prometheus.GaugeVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Catalog metrics
	CatalogReloads      prometheus.Counter
	CatalogReloadErrors prometheus.Counter
}

// New creates a collector on its own registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "composer",
				Name:      "resolutions_total",
				Help:      "Total number of resolution passes by outcome",
			},
			[]string{"root", "outcome"},
		),
		ResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "composer",
				Name:      "resolution_duration_seconds",
				Help:      "Resolution pass duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"root"},
		),
		Conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "composer",
				Name:      "conflicts_total",
				Help:      "Total number of lenient overrides recorded",
			},
			[]string{"root"},
		),
		Definitions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "composer",
				Name:      "definitions",
				Help:      "Definitions in the last successful registry per root",
			},
			[]string{"root"},
		),

		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "composer",
				Name:      "cache_requests_total",
				Help:      "Registry cache lookups by result",
			},
			[]string{"result"},
		),

		CatalogReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "composer",
				Name:      "catalog_reloads_total",
				Help:      "Total number of successful catalog reloads",
			},
		),
		CatalogReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "composer",
				Name:      "catalog_reload_errors_total",
				Help:      "Total number of failed catalog reloads",
			},
		),
	}
}

// ObserveResolution records a finished pass.
func (c *Collector) ObserveResolution(r container.Report) {
	c.Resolutions.WithLabelValues(r.Root, container.FailureKind(r.Err)).Inc()
	c.ResolutionDuration.WithLabelValues(r.Root).Observe(r.Duration.Seconds())
	if r.Err != nil {
		return
	}
	if r.Diagnostics > 0 {
		c.Conflicts.WithLabelValues(r.Root).Add(float64(r.Diagnostics))
	}
	c.Definitions.WithLabelValues(r.Root).Set(float64(r.Definitions))
}

// ObserveCacheRequest records a cache hit or miss.
func (c *Collector) ObserveCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveCatalogReload records a reload attempt.
func (c *Collector) ObserveCatalogReload(err error) {
	if err != nil {
		c.CatalogReloadErrors.Inc()
		return
	}
	c.CatalogReloads.Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ container.Observer = (*Collector)(nil)
