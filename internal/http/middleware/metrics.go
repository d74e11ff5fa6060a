// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures request
// counts, latencies, in-flight concurrency and response sizes labelled by:
//
//   - method: HTTP method verb
//   - path:   the registered Gin route (e.g. /api/polls/:pollId/votes), or
//     "unmatched" when no route matched so random URLs cannot grow the series
//   - status: numeric status code as a string
//
// It also owns the domain counters incremented by handlers and the rate
// limiter (polls created, votes cast, polls locked, limiter decisions).
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedPath = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// status is left out to keep histogram cardinality low
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: []float64{64, 128, 256, 512, 1 << 10, 2 << 10, 4 << 10, 8 << 10, 16 << 10, 64 << 10},
		},
		[]string{"method", "path"},
	)

	pollsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meetmerge",
		Name:      "polls_created_total",
		Help:      "Polls created.",
	})

	votesCast = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetmerge",
		Name:      "votes_total",
		Help:      "Votes stored (inserts and updates), by choice.",
	}, []string{"choice"})

	pollsLocked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meetmerge",
		Name:      "polls_locked_total",
		Help:      "Polls locked by their host.",
	})

	rateDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_decisions_total",
		Help: "Rate limiter decisions by scope and outcome.",
	}, []string{"scope", "outcome"})
)

func init() {
	prometheus.MustRegister(
		httpReqs, httpLat, httpInflight, httpRespSize,
		pollsCreated, votesCast, pollsLocked, rateDecisions,
	)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// size is -1 when nothing was written
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

// ObservePollCreated counts a successfully created poll.
func ObservePollCreated() { pollsCreated.Inc() }

// ObserveVote counts a stored vote.
func ObserveVote(choice string) { votesCast.WithLabelValues(choice).Inc() }

// ObservePollLocked counts a successful lock.
func ObservePollLocked() { pollsLocked.Inc() }

func observeRateDecision(scope string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	rateDecisions.WithLabelValues(scope, outcome).Inc()
}
