package apiclient

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lifeline_backend"

// Collector is a prometheus.Collector for backend calls
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsCollector returns a new Collector
func NewMetricsCollector() *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Backend requests by method, resource and status code.",
			}, []string{"method", "resource", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "Backend request latency.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"method", "resource"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.duration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.duration.Collect(ch)
}

func (c *Collector) observe(method, path string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	resource := resourceOf(path)
	c.requests.WithLabelValues(method, resource, strconv.Itoa(code)).Inc()
	c.duration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

// resourceOf keeps label cardinality bounded by dropping ids
func resourceOf(path string) string {
	first, _, _ := strings.Cut(strings.TrimLeft(path, "/"), "/")
	if first == "" {
		return "root"
	}
	return first
}
