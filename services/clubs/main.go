package main

import (
	"context"
	"os"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	mw "github.com/clubhive/clubhive/pkg/middleware"
	"github.com/clubhive/clubhive/pkg/obs"
	"github.com/clubhive/clubhive/pkg/server"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/clubs/internal/handlers"
	"github.com/clubhive/clubhive/services/clubs/internal/repository"
	"github.com/clubhive/clubhive/services/clubs/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, "clubs", cfg.Tracing)
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

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "clubs")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	clubRepo := repository.NewClubRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)

	// Initialize services
	h := handlers.New(
		service.NewClubService(clubRepo, eventBus),
		service.NewEventService(eventRepo, registrationRepo, eventBus),
		service.NewAnnouncementService(announcementRepo, profileRepo, eventBus),
	)

	sessions := session.NewRedisStore(rdb, cfg.Auth.SessionTTL)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("clubs"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(pool.Ping, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }))

	r.Mount("/", h.Routes(
		mw.RequireSession(cfg.Auth.JWTSecret, sessions, ""),
		mw.RequireSession(cfg.Auth.JWTSecret, sessions, auth.RoleAdmin),
		mw.Idempotency(mw.NewRedisIdempotencyStore(rdb)),
	))

	srv := server.New("8082", r, cfg.Server)
	if err := server.Run(srv, "clubs", func(ctx context.Context) { shutdownTracer(ctx) }); err != nil {
		logger.Error("Clubs service error", "error", err)
		os.Exit(1)
	}
}
