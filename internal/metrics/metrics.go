// Package metrics exposes gateway counters in the Prometheus format. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
)

const namespace = "hateoas_gateway"

type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	transformLatency prometheus.Histogram
	objects          *prometheus.CounterVec
	links            *prometheus.CounterVec
	reloads          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Proxied requests by route template, method, status and outcome.",
		}, []string{"route", "method", "status", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End to end latency of proxied requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		transformLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Time spent decorating response bodies.",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		objects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_total",
			Help:      "JSON objects visited by the transformer, by result (decorated, plain, unconfigured).",
		}, []string{"result"}),
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_total",
			Help:      "Links emitted or suppressed by conditions.",
		}, []string{"result"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Engine reloads by trigger and result.",
		}, []string{"trigger", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.transformLatency,
		m.objects,
		m.links,
		m.reloads,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRequest records one proxied request. outcome is "decorated",
// "passthrough" or an error code.
func (m *Metrics) ObserveRequest(route, method string, status int, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status), outcome).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) ObserveTransform(stats hateoas.Stats, d time.Duration) {
	if m == nil {
		return
	}
	m.transformLatency.Observe(d.Seconds())
	m.objects.WithLabelValues("decorated").Add(float64(stats.ObjectsDecorated))
	// Results partition the visited objects.
	m.objects.WithLabelValues("plain").Add(float64(stats.ObjectsVisited - stats.ObjectsDecorated - stats.Unconfigured))
	m.objects.WithLabelValues("unconfigured").Add(float64(stats.Unconfigured))
	m.links.WithLabelValues("emitted").Add(float64(stats.LinksEmitted))
	m.links.WithLabelValues("suppressed").Add(float64(stats.LinksSuppressed))
}

func (m *Metrics) ObserveReload(trigger string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloads.WithLabelValues(trigger, result).Inc()
}
