package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cloudstore"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	logins          *prometheus.CounterVec
	cartOperations  *prometheus.CounterVec
	storeRetries    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	catalogCache    *prometheus.CounterVec
	catalogUpstream prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry, including Go and
// process collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		cartOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "store_retries_total",
			Help:      "Store calls retried after a transient failure.",
		}, []string{"op"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "store_duration_seconds",
			Help:      "Duration of cart store calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"op"}),
		catalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cache_lookups_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"result"}),
		catalogUpstream: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "upstream_errors_total",
			Help:      "Failed calls to the product catalog upstream.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
	}

	p.registry.MustRegister(
		p.logins,
		p.cartOperations,
		p.storeRetries,
		p.storeDuration,
		p.catalogCache,
		p.catalogUpstream,
		p.httpRequests,
		p.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Handler returns an HTTP handler exposing the registered metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) IncLogin(outcome string) {
	p.logins.WithLabelValues(outcome).Inc()
}

// IncCartOperation implements Recorder.
func (p *PrometheusRecorder) IncCartOperation(op, outcome string) {
	p.cartOperations.WithLabelValues(op, outcome).Inc()
}

// IncStoreRetry implements Recorder.
func (p *PrometheusRecorder) IncStoreRetry(op string) {
	p.storeRetries.WithLabelValues(op).Inc()
}

// ObserveStoreDuration implements Recorder.
func (p *PrometheusRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	p.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncCatalogCacheHit implements Recorder.
func (p *PrometheusRecorder) IncCatalogCacheHit() {
	p.catalogCache.WithLabelValues("hit").Inc()
}

// IncCatalogCacheMiss implements Recorder.
func (p *PrometheusRecorder) IncCatalogCacheMiss() {
	p.catalogCache.WithLabelValues("miss").Inc()
}

// IncCatalogUpstreamError implements Recorder.
func (p *PrometheusRecorder) IncCatalogUpstreamError() {
	p.catalogUpstream.Inc()
}

// ObserveRequest implements Recorder.
func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
