// Command meetmerge serves the scheduling-poll API.
//
// @title       MeetMerge API
// @version     1.0
// @description Scheduling polls: hosts propose slots, guests vote yes/maybe/no, hosts lock a winner.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-meetmerge-backend/internal/config"
	httpapi "github.com/tbourn/go-meetmerge-backend/internal/http"
	"github.com/tbourn/go-meetmerge-backend/internal/observability"
	"github.com/tbourn/go-meetmerge-backend/internal/ratelimit"
	"github.com/tbourn/go-meetmerge-backend/internal/repo"
	"github.com/tbourn/go-meetmerge-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	statsQueueSize    = 1024
	statsWriteTimeout = 200 * time.Millisecond
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if cfg.OTEL.Enabled {
		if err := observability.InstrumentDB(db); err != nil {
			log.Fatal().Err(err).Msg("instrument database")
		}
	}

	recorder, closeStats := statsRecorder(ctx, cfg.Redis)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, recorder)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db", cfg.DBPath).
			Int("rate_limit", cfg.RateLimit).
			Dur("rate_window", cfg.RateWindow).
			Bool("redis_stats", cfg.Redis.Addr != "").
			Strs("trusted_proxies", cfg.TrustedProxies).
			Str("version", version).
			Msg("meetmerge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := closeStats(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("rate limit stats shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}

// statsRecorder mirrors rate-limit decisions to Redis when REDIS_ADDR is set
// and returns a nil recorder otherwise. Writes are queued off the request
// path. An unreachable Redis at startup is logged and otherwise ignored.
func statsRecorder(ctx context.Context, cfg config.RedisConfig) (ratelimit.Recorder, func(context.Context) error) {
	if cfg.Addr == "" {
		return nil, func(context.Context) error { return nil }
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis stats unreachable, continuing")
	}

	async := ratelimit.NewAsyncRecorder(
		ratelimit.NewRedisStats(rdb, ratelimit.WithTTL(cfg.StatsTTL)),
		statsQueueSize,
		statsWriteTimeout,
	)
	return async, func(ctx context.Context) error {
		err := async.Close(ctx)
		if cerr := rdb.Close(); err == nil {
			err = cerr
		}
		return err
	}
}
