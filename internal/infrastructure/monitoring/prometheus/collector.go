// Package prometheus provides the metrics registry and the application
// metric set for the estimation pipeline.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build isolated instances
// without tripping duplicate-registration panics on the global default.
type Collector struct {
	registry  *prometheus.Registry
	namespace string
}

// NewCollector builds a Collector.  When runtimeMetrics is true the standard
// Go and process collectors are registered as well.
func NewCollector(namespace string, runtimeMetrics bool) *Collector {
	reg := prometheus.NewRegistry()
	if runtimeMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &Collector{registry: reg, namespace: namespace}
}

// RegisterCounter registers and returns a labelled counter.
func (c *Collector) RegisterCounter(name, help string, labels ...string) *prometheus.CounterVec {
	v := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	c.registry.MustRegister(v)
	return v
}

// RegisterGauge registers and returns a labelled gauge.
func (c *Collector) RegisterGauge(name, help string, labels ...string) *prometheus.GaugeVec {
	v := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	c.registry.MustRegister(v)
	return v
}

// RegisterHistogram registers and returns a labelled histogram.
func (c *Collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	v := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	c.registry.MustRegister(v)
	return v
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
