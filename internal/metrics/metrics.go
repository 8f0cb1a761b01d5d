package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	created   *prometheus.CounterVec
	deleted   prometheus.Counter
	downloads prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simpleshare",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simpleshare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simpleshare",
			Name:      "contents_created_total",
			Help:      "Shared contents created, by content type.",
		}, []string{"type"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simpleshare",
			Name:      "contents_deleted_total",
			Help:      "Delete requests served.",
		}),
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simpleshare",
			Name:      "contents_downloaded_total",
			Help:      "Downloads served.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.created, m.deleted, m.downloads,
	)

	return m
}

func (m *Metrics) Created(contentType string) {
	m.created.WithLabelValues(contentType).Inc()
}

func (m *Metrics) Deleted() {
	m.deleted.Inc()
}

func (m *Metrics) Downloaded() {
	m.downloads.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records every request under its route pattern, not the raw path.
func (m *Metrics) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := ctx.Route().Path
		method := ctx.Method()

		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		return err
	}
}
