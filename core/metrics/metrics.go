package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects sync and HTTP metrics on a private registry.
type Metrics struct {
	devices       *prometheus.CounterVec
	chunks        *prometheus.CounterVec
	chunkDuration *prometheus.HistogramVec
	enrichments   *prometheus.CounterVec
	reqTotal      *prometheus.CounterVec
	reqLatency    *prometheus.HistogramVec
	registry      *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		devices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_sync_devices_total",
			Help: "Devices processed by source and outcome",
		}, []string{"source", "outcome"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_sync_chunks_total",
			Help: "Chunks executed by source and result",
		}, []string{"source", "result"}),
		chunkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asset_sync_chunk_duration_seconds",
			Help:    "Wall-clock time spent on a chunk attempt",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"source"}),
		enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_sync_enrichments_total",
			Help: "Enrichment merges by outcome",
		}, []string{"outcome"}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		reqLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		registry: registry,
	}

	registry.MustRegister(m.devices, m.chunks, m.chunkDuration, m.enrichments, m.reqTotal, m.reqLatency)
	return m
}

// Device counts one device outcome. Safe on a nil receiver.
func (m *Metrics) Device(source, outcome string) {
	if m == nil {
		return
	}
	m.devices.WithLabelValues(source, outcome).Inc()
}

// Chunk records a chunk attempt and its duration.
func (m *Metrics) Chunk(source string, ok bool, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.chunks.WithLabelValues(source, result).Inc()
	m.chunkDuration.WithLabelValues(source).Observe(took.Seconds())
}

// Enrichment counts one merge outcome.
func (m *Metrics) Enrichment(outcome string) {
	if m == nil {
		return
	}
	m.enrichments.WithLabelValues(outcome).Inc()
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware returns a Fiber middleware that records request metrics.
// The path label is the matched route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			path = r.Path
		}

		code := strconv.Itoa(status)
		m.reqTotal.WithLabelValues(c.Method(), path, code).Inc()
		m.reqLatency.WithLabelValues(c.Method(), path, code).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
