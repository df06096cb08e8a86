// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasontracker_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seasontracker_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seasontracker_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		},
	)
)

// Domain metrics
var (
	// TvShowMutationsTotal counts create/update/delete by outcome
	// (success, invalid, not_found, denied, error).
	TvShowMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasontracker_tvshow_mutations_total",
			Help: "Total number of TV show mutations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	WatchListMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasontracker_watchlist_mutations_total",
			Help: "Total number of watch list mutations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	AuthorizationDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasontracker_authorization_decisions_total",
			Help: "Total number of role checks by role and decision.",
		},
		[]string{"role", "decision"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimitedTotal,
		TvShowMutationsTotal,
		WatchListMutationsTotal,
		AuthorizationDecisionsTotal,
	)
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
