// Package metricsvc collects Prometheus metrics for the API and the billing flows.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
)

const namespace = "ibuc"

// Collector holds every metric of the service on its own registry.
type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	chargesGenerated prometheus.Counter
	paymentsCount    prometheus.Counter
	paymentsCents    prometheus.Counter
}

var _ billing.Metrics = (*Collector)(nil) // interface compliance check

func NewCollector(build string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served",
		}),
		chargesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "charges_generated_total",
			Help:      "Tuition charges created by batch generation",
		}),
		paymentsCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payments_confirmed_total",
			Help:      "Tuition charges confirmed as paid",
		}),
		paymentsCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payments_confirmed_cents_total",
			Help:      "Amount confirmed as paid, in cents",
		}),
	}

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"build"})
	info.WithLabelValues(build).Set(1)

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		info,
		c.httpRequests,
		c.httpDuration,
		c.inFlight,
		c.chargesGenerated,
		c.paymentsCount,
		c.paymentsCents,
	)
	return c
}

func (c *Collector) ChargesGenerated(n int) {
	c.chargesGenerated.Add(float64(n))
}

func (c *Collector) PaymentConfirmed(cents int) {
	c.paymentsCount.Inc()
	c.paymentsCents.Add(float64(cents))
}

// Middleware records request count and latency per route template.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			c.inFlight.Inc()
			defer c.inFlight.Dec()

			err := next(ctx)

			status := ctx.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := ctx.Path()
			if route == "" {
				route = "unknown"
			}
			c.httpRequests.WithLabelValues(ctx.Request().Method, route, strconv.Itoa(status)).Inc()
			c.httpDuration.WithLabelValues(ctx.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
