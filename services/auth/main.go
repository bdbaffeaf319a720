package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	mw "github.com/clubhive/clubhive/pkg/middleware"
	"github.com/clubhive/clubhive/pkg/obs"
	"github.com/clubhive/clubhive/pkg/server"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/auth/internal/handlers"
	"github.com/clubhive/clubhive/services/auth/internal/repository"
	"github.com/clubhive/clubhive/services/auth/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, "auth", cfg.Tracing)
	if err != nil {
		logger.Error("Failed to init tracing", "error", err)
		os.Exit(1)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "auth")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	sessions := session.NewRedisStore(rdb, cfg.Auth.SessionTTL)
	sessionService := service.NewSessionService(repository.NewProfileRepository(pool), sessions, eventBus, cfg.Auth)
	h := handlers.New(sessionService)

	limiter := mw.NewRateLimiter(rdb, mw.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		KeyFunc: func(r *http.Request) []string {
			return []string{"signin:" + mw.ClientIP(r)}
		},
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("auth"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(pool.Ping, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }))

	r.Mount("/", h.Routes(mw.RequireSession(cfg.Auth.JWTSecret, sessions, ""), limiter.Middleware()))

	srv := server.New("8081", r, cfg.Server)
	if err := server.Run(srv, "auth", func(ctx context.Context) { shutdownTracer(ctx) }); err != nil {
		logger.Error("Auth service error", "error", err)
		os.Exit(1)
	}
}
