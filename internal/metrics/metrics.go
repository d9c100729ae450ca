// Package metrics exposes the pipeline's Prometheus collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "binmon"

// Reading outcomes used as the result label of readings_total.
const (
	ReadingAccepted  = "accepted"
	ReadingMalformed = "malformed"
	ReadingRejected  = "out_of_range"
	ReadingNotFound  = "not_found"
	ReadingFailed    = "store_error"
)

type Metrics struct {
	registry *prometheus.Registry

	readings     *prometheus.CounterVec
	requests     *prometheus.CounterVec
	collections  prometheus.Counter
	hubEvents    *prometheus.CounterVec
	subscribers  prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Sensor readings processed, by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_requests_total",
			Help:      "Collection request attempts, by outcome (created or deduplicated).",
		}, []string{"outcome"}),
		collections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_completed_total",
			Help:      "Completed bin collections.",
		}),
		hubEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_events_total",
			Help:      "Per-subscriber event deliveries, by outcome (delivered or dropped).",
		}, []string{"outcome"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_subscribers",
			Help:      "Live dashboard subscriptions.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.readings,
		m.requests,
		m.collections,
		m.hubEvents,
		m.subscribers,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Reading(result string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(result).Inc()
}

func (m *Metrics) CollectionRequest(created bool) {
	if m == nil {
		return
	}
	outcome := "deduplicated"
	if created {
		outcome = "created"
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CollectionCompleted() {
	if m == nil {
		return
	}
	m.collections.Inc()
}

func (m *Metrics) EventDelivered() {
	if m == nil {
		return
	}
	m.hubEvents.WithLabelValues("delivered").Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.hubEvents.WithLabelValues("dropped").Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// GinMiddleware records count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
