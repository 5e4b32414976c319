package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ChatRequests
const (
	OutcomeSuccess  = "success"
	OutcomeCached   = "cached"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
	OutcomeTimedOut = "timeout"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_chat_requests_total",
			Help: "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docchat_upstream_duration_seconds",
			Help:    "Duration of calls to the responses API in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"model"},
	)

	SourcesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docchat_sources_returned",
			Help:    "Number of distinct sources cited per answer",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_cache_lookups_total",
			Help: "Answer cache lookups by result",
		},
		[]string{"result"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docchat_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
