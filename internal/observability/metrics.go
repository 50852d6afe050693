package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	queriesTotal         *prometheus.CounterVec
	resolverFallbacks    prometheus.Counter
	filterWarningsTotal  prometheus.Counter
	emptyScopeRejections prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queryapi_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queryapi_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queryapi_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queryapi_queries_total",
			Help: "Answered queries by resolved intent.",
		}, []string{"intent"})

		resolverFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queryapi_resolver_fallbacks_total",
			Help: "Queries answered with the default intent because resolution failed.",
		})

		filterWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queryapi_filter_warnings_total",
			Help: "Filter, sort or limit steps skipped while executing queries.",
		})

		emptyScopeRejections = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queryapi_empty_scope_rejections_total",
			Help: "Queries refused because the admin scope holds no records.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			queriesTotal,
			resolverFallbacks,
			filterWarningsTotal,
			emptyScopeRejections,
		)
	})
}

// MetricsHandler serves the default registry for GET /metrics. The intent
// parser registers its collectors there too. A failing collector is skipped
// rather than failing the scrape.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
}

// APIRequests exposes the counter for admin requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for admin requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for admin error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Queries exposes the answered query counter.
func Queries() *prometheus.CounterVec {
	RegisterMetrics()
	return queriesTotal
}

// ResolverFallbacks exposes the counter of default-intent substitutions.
func ResolverFallbacks() prometheus.Counter {
	RegisterMetrics()
	return resolverFallbacks
}

// FilterWarnings exposes the counter of skipped query steps.
func FilterWarnings() prometheus.Counter {
	RegisterMetrics()
	return filterWarningsTotal
}

// EmptyScopeRejections exposes the counter of refused empty-scope queries.
func EmptyScopeRejections() prometheus.Counter {
	RegisterMetrics()
	return emptyScopeRejections
}
