package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "myrush"

var slotCountBuckets = []float64{0, 1, 2, 4, 8, 12, 16, 24}

// MetricsService owns the process registry and every collector the API
// reports. All methods are safe on a nil receiver so metrics can be disabled.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	slotResolutions *prometheus.CounterVec
	slotDuration    prometheus.Observer
	slotsAvailable  prometheus.Observer
	skippedRules    *prometheus.CounterVec
	bookingsCreated *prometheus.CounterVec
	otpDispatched   *prometheus.CounterVec

	hits, lookups atomic.Uint64
}

// NewMetricsService builds a private registry with Go runtime and process
// collectors plus the API's own series under the "myrush" namespace.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	m := &MetricsService{registry: registry}

	m.requestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.requestTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	m.cacheLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "read_seconds",
		Help:      "Redis read latency.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.cacheWrite = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "write_seconds",
		Help:      "Redis write latency.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache lookups served from Redis.",
	})
	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache lookups that fell through to the database.",
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of cache lookups that hit since start.",
	}, m.hitRatio)
	m.dbQueryDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "load_seconds",
		Help:      "Time spent loading cacheable read models from Postgres.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})

	m.slotResolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "slots",
		Name:      "resolutions_total",
		Help:      "Slot resolutions by rule source and outcome.",
	}, []string{"source", "outcome"})
	m.slotDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "slots",
		Name:      "resolution_seconds",
		Help:      "Time spent resolving available slots.",
		Buckets:   prometheus.DefBuckets,
	})
	m.slotsAvailable = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "slots",
		Name:      "available",
		Help:      "Available slots returned per successful resolution.",
		Buckets:   slotCountBuckets,
	})
	m.skippedRules = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "slots",
		Name:      "rules_skipped_total",
		Help:      "Malformed court rules ignored during resolution.",
	}, []string{"kind"})

	m.bookingsCreated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "bookings_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})
	m.otpDispatched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "otp_dispatch_total",
		Help:      "OTP issue and delivery outcomes.",
	}, []string{"outcome"})

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry; a disabled service answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request against its route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	m.lookups.Add(1)
	if hit {
		m.hits.Add(1)
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *MetricsService) hitRatio() float64 {
	total := m.lookups.Load()
	if total == 0 {
		return 0
	}
	return float64(m.hits.Load()) / float64(total)
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records the time a cache miss spent in Postgres.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveSlotResolution records one resolver run. The slot count is only
// observed for successful runs.
func (m *MetricsService) ObserveSlotResolution(source, outcome string, available int, duration time.Duration) {
	if m == nil {
		return
	}
	m.slotResolutions.WithLabelValues(source, outcome).Inc()
	m.slotDuration.Observe(duration.Seconds())
	if outcome == "ok" {
		m.slotsAvailable.Observe(float64(available))
	}
}

func (m *MetricsService) RecordSkippedRule(kind string) {
	if m == nil {
		return
	}
	m.skippedRules.WithLabelValues(kind).Inc()
}

func (m *MetricsService) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(outcome).Inc()
}

func (m *MetricsService) RecordOTPDispatch(outcome string) {
	if m == nil {
		return
	}
	m.otpDispatched.WithLabelValues(outcome).Inc()
}
