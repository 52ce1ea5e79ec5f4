// Package metrics exposes Prometheus instrumentation for the graph engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Layer names used as label values.
const (
	LayerNodes = "nodes"
	LayerEdges = "edges"
	LayerThumb = "thumbnail"
)

// Reconcile results used as label values.
const (
	ResultAdded   = "added"
	ResultUpdated = "updated"
	ResultRemoved = "removed"
)

// Collector holds all Prometheus metrics for the engine. Every method is
// safe to call on a nil *Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	Redraws            *prometheus.CounterVec
	RenderDuration     *prometheus.HistogramVec
	VisibleNodes       prometheus.Gauge
	EntitiesReconciled *prometheus.CounterVec
	Ticks              prometheus.Counter
}

// NewCollector creates a collector with its own registry under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	redraws := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redraws_total",
			Help:      "Total number of render passes per layer",
		},
		[]string{"layer"},
	)

	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render pass duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
		[]string{"layer"},
	)

	visibleNodes := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_nodes",
			Help:      "Number of nodes inside the viewport at the last node pass",
		},
	)

	reconciled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_reconciled_total",
			Help:      "Total number of entities reconciled by kind and result",
		},
		[]string{"kind", "result"},
	)

	ticks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_ticks_total",
			Help:      "Total number of layout ticks rendered",
		},
	)

	registry.MustRegister(redraws, renderDuration, visibleNodes, reconciled, ticks)

	return &Collector{
		registry:           registry,
		Redraws:            redraws,
		RenderDuration:     renderDuration,
		VisibleNodes:       visibleNodes,
		EntitiesReconciled: reconciled,
		Ticks:              ticks,
	}
}

// ObserveRender records one pass over layer that started at start.
func (c *Collector) ObserveRender(layer string, start time.Time) {
	if c == nil {
		return
	}
	c.Redraws.WithLabelValues(layer).Inc()
	c.RenderDuration.WithLabelValues(layer).Observe(time.Since(start).Seconds())
}

// SetVisibleNodes records the size of the visible set.
func (c *Collector) SetVisibleNodes(n int) {
	if c == nil {
		return
	}
	c.VisibleNodes.Set(float64(n))
}

// AddReconciled counts entities of kind that ended with result.
func (c *Collector) AddReconciled(kind, result string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.EntitiesReconciled.WithLabelValues(kind, result).Add(float64(n))
}

// IncTicks counts a layout tick.
func (c *Collector) IncTicks() {
	if c == nil {
		return
	}
	c.Ticks.Inc()
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
