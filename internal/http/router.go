// Package httpapi wires the HTTP transport (Gin) to the poll service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, redacted access logs, panic recovery,
// compression, metrics, CORS, security headers and per-route rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	"github.com/rs/zerolog/log"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-meetmerge-backend/docs"
	"github.com/tbourn/go-meetmerge-backend/internal/config"
	"github.com/tbourn/go-meetmerge-backend/internal/http/handlers"
	"github.com/tbourn/go-meetmerge-backend/internal/http/middleware"
	"github.com/tbourn/go-meetmerge-backend/internal/ratelimit"
	"github.com/tbourn/go-meetmerge-backend/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Rate-limit scopes, one budget each.
const (
	scopeCreate = "create"
	scopeVote   = "vote"
	scopeLock   = "lock"
)

// RegisterRoutes attaches all middleware and endpoints to r. rec receives
// rate-limit decisions and may be nil.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: access log with host and voter keys scrubbed
//  4. Recovery: capture panics after the logger is attached
//  5. Body size limiter
//  6. gzip
//  7. Metrics
//  8. CORS and security headers
//
// Rate limiting is attached per route to the three mutating endpoints, so
// reads, health checks and /metrics are never throttled. Limiter keys use the
// client address, which honors forwarding headers only from cfg.TrustedProxies.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, rec ratelimit.Recorder) {
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{handlers.VoterKeyHeader},
		MaskQuery:   []string{"hostKey"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Metrics())
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = basePath(cfg.APIBasePath)
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(services.NewPollService(db), handlers.VoterCookie{
		Name:   cfg.VoterCookie.Name,
		MaxAge: cfg.VoterCookie.MaxAge,
		Secure: cfg.VoterCookie.Secure,
	})

	limit := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(scope, ratelimit.NewSlidingWindow(cfg.RateLimit, cfg.RateWindow), rec)
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/health", h.Health)

		api.POST("/polls", limit(scopeCreate), h.CreatePoll)
		api.GET("/polls/:pollId", h.GetPoll)
		api.POST("/polls/:pollId/votes", limit(scopeVote), h.Vote)
		api.POST("/polls/:pollId/lock", limit(scopeLock), h.LockPoll)
	}
}

// corsMiddleware allows every origin without credentials when no allowlist
// is configured, and otherwise echoes listed origins with credentials so
// the voter cookie survives cross-origin frontends.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "If-None-Match", handlers.VoterKeyHeader},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "Retry-After", handlers.VoterKeyHeader},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}
	return cors.New(c)
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Oversized bodies fail JSON binding and surface as 400.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func basePath(prefix string) string {
	if prefix == "" {
		return "/"
	}
	return prefix
}
