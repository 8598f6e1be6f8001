package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lxrose/internal/auth"
	"lxrose/internal/config"
	"lxrose/internal/database"
	"lxrose/internal/handlers"
	"lxrose/internal/logging"
	"lxrose/internal/ratelimit"
	"lxrose/internal/telemetry"
)

const serviceName = "lxrose-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("config load failed", "error", err)
	}
	logging.Setup(serviceName, cfg.LogLevel)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logging.Fatal("telemetry init failed", "error", err)
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logging.Fatal("mongo connect failed", "error", err)
	}

	db := client.Database(cfg.DBName)
	slog.Info("mongo connected", "db", db.Name())

	store := database.NewStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		slog.Warn("index warning", "error", err)
	}

	loginLimiter, intakeLimiter := newLimiters(ctx, cfg)

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.Deps{
		Store:         store,
		Tokens:        auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Verifier:      auth.GoogleVerifier{Audience: cfg.IDTokenAudience},
		LoginLimiter:  loginLimiter,
		IntakeLimiter: intakeLimiter,
		CORSOrigins:   cfg.CORSOrigins,
		ServiceName:   serviceName,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		slog.Error("mongo disconnect failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracer shutdown failed", "error", err)
	}
}

// newLimiters prefers Redis when REDIS_URL is set and reachable.
func newLimiters(ctx context.Context, cfg config.Config) (ratelimit.Limiter, ratelimit.Limiter) {
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			return ratelimit.NewRedis(rdb, "login", cfg.LoginRateLimit, cfg.RateLimitWindow),
				ratelimit.NewRedis(rdb, "intake", cfg.IntakeRateLimit, cfg.RateLimitWindow)
		}
		slog.Warn("redis unavailable, using in-memory rate limits", "error", err)
	}
	return ratelimit.NewMemory(cfg.LoginRateLimit, cfg.RateLimitWindow),
		ratelimit.NewMemory(cfg.IntakeRateLimit, cfg.RateLimitWindow)
}
