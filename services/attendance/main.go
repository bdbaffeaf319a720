package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	mw "github.com/clubhive/clubhive/pkg/middleware"
	"github.com/clubhive/clubhive/pkg/obs"
	"github.com/clubhive/clubhive/pkg/server"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
	"github.com/clubhive/clubhive/services/attendance/internal/handlers"
	"github.com/clubhive/clubhive/services/attendance/internal/repository"
	"github.com/clubhive/clubhive/services/attendance/internal/station"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, "attendance", cfg.Tracing)
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

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "attendance")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	sessions := session.NewRedisStore(rdb, cfg.Auth.SessionTTL)
	desks := checkin.NewDesks(repository.NewRosterRepository(pool), eventBus)
	stations := station.NewRedisRepository(rdb, cfg.Attendance.StationKeyTTL)

	limiter := mw.NewRateLimiter(rdb, mw.RateLimitConfig{
		Requests: cfg.Auth.RateLimit,
		Window:   cfg.Auth.RateWindow,
		KeyFunc: func(r *http.Request) []string {
			if s, ok := session.FromContext(r.Context()); ok {
				return []string{"checkin:" + s.UserID()}
			}
			return mw.ClientIPKey(r)
		},
	})

	h := handlers.New(desks, stations, cfg.Attendance.ScanCooldown)

	go sweepDesks(desks, cfg.Attendance.DeskIdleExpiry)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("attendance"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(pool.Ping, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }))

	r.Mount("/", h.Routes(
		mw.RequireSession(cfg.Auth.JWTSecret, sessions, auth.RoleAdmin),
		limiter.Middleware(),
	))

	// WebSocket scan sessions outlive the write timeout
	srv := server.New("8083", r, cfg.Server)
	srv.WriteTimeout = 0

	if err := server.Run(srv, "attendance", func(ctx context.Context) { shutdownTracer(ctx) }); err != nil {
		logger.Error("Attendance service error", "error", err)
		os.Exit(1)
	}
}

func sweepDesks(desks *checkin.Desks, expiry time.Duration) {
	t := time.NewTicker(expiry / 2)
	defer t.Stop()
	for range t.C {
		if n := desks.Sweep(time.Now().Add(-expiry)); n > 0 {
			logger.Debug("Closed idle check-in desks", "count", n)
		}
	}
}
