// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file adapts ratelimit.SlidingWindow to Gin. RateLimit is installed per
// route (create, vote and lock) rather than globally, so reads and health
// checks are never throttled. Each route gets its own scope, and the limiter
// key is "<scope>:<client ip>".
//
// Every decision is counted in Prometheus and handed to a ratelimit.Recorder.
// The recorder runs inline, so slow sinks belong behind a
// ratelimit.AsyncRecorder. Recording is best-effort: a failing recorder (e.g.
// a full queue) is logged at most once per recorderLogInterval and never
// affects the response.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-meetmerge-backend/internal/ratelimit"
)

const recorderLogInterval = 30 * time.Second

// RateLimit returns a middleware admitting requests through lim under scope.
// rec may be nil.
//
// Rejected requests are aborted with:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds, rounded up>
//	{ "request_id": "...", "code": "too_many_requests", "error": "rate limit exceeded" }
func RateLimit(scope string, lim *ratelimit.SlidingWindow, rec ratelimit.Recorder) gin.HandlerFunc {
	logFailure := &rate.Sometimes{Interval: recorderLogInterval}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		d := lim.Decide(scope + ":" + ip)
		observeRateDecision(scope, d.Allowed)

		if rec != nil {
			ev := ratelimit.Event{Scope: scope, Key: ip, Allowed: d.Allowed, At: time.Now()}
			if err := rec.Record(c.Request.Context(), ev); err != nil {
				logFailure.Do(func() {
					LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("rate limit stats not recorded")
				})
			}
		}

		if d.Allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfterSeconds(d.RetryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"error":      "rate limit exceeded",
		})
	}
}

// retryAfterSeconds renders d as whole seconds, rounded up, never below 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
