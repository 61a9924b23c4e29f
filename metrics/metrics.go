package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Storefront metrics
	ProductQueriesTotal *prometheus.CounterVec
	ProductQueryResults prometheus.Histogram
	CartOperationsTotal *prometheus.CounterVec

	// Hook metrics
	HookRunsTotal *prometheus.CounterVec

	// Cache metrics
	CacheLookupsTotal *prometheus.CounterVec

	once sync.Once
)

// InitMetrics registers the collectors under the configured prefix. Later
// calls are no-ops.
func InitMetrics(prefix string) {
	once.Do(func() {
		HttpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HttpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		ProductQueriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_product_queries_total",
				Help: "Total number of product listing queries",
			},
			[]string{"kind"},
		)

		ProductQueryResults = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_product_query_results",
				Help:    "Number of items returned per listing page",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
		)

		CartOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cart_operations_total",
				Help: "Total number of cart operations",
			},
			[]string{"operation", "result"},
		)

		HookRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_hook_runs_total",
				Help: "Total number of lifecycle hook runs",
			},
			[]string{"entity", "phase", "hook", "result"},
		)

		CacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cache_lookups_total",
				Help: "Total number of cache lookups",
			},
			[]string{"cache", "result"},
		)
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordProductQuery counts a listing query and the size of its page.
func RecordProductQuery(kind string, items int) {
	if ProductQueriesTotal == nil {
		return
	}
	ProductQueriesTotal.WithLabelValues(kind).Inc()
	ProductQueryResults.Observe(float64(items))
}

// RecordCartOperation counts a cart mutation.
func RecordCartOperation(operation string, err error) {
	if CartOperationsTotal == nil {
		return
	}
	CartOperationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if CacheLookupsTotal == nil {
		return
	}
	r := "miss"
	if hit {
		r = "hit"
	}
	CacheLookupsTotal.WithLabelValues(cache, r).Inc()
}

// ObserveHooks counts every hook run on the dispatcher.
func ObserveHooks(d *events.Dispatcher) {
	d.Observe(func(entity events.Entity, phase events.Phase, name string, err error) {
		if HookRunsTotal == nil {
			return
		}
		HookRunsTotal.WithLabelValues(string(entity), phase.String(), name, result(err)).Inc()
	})
}
