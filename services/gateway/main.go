package main

import (
	"os"

	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/logger"
	mw "github.com/clubhive/clubhive/pkg/middleware"
	"github.com/clubhive/clubhive/pkg/server"
	"github.com/clubhive/clubhive/services/gateway/internal/handlers"
	"github.com/clubhive/clubhive/services/gateway/internal/proxy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	authProxy := mustProxy("auth", cfg.Services.AuthURL, "/v1/auth")
	clubsProxy := mustProxy("clubs", cfg.Services.ClubsURL, "/v1")
	attendanceProxy := mustProxy("attendance", cfg.Services.AttendanceURL, "/v1/attendance")
	stationsProxy := mustProxy("attendance", cfg.Services.AttendanceURL, "/v1")

	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(mw.Health(authProxy.Ping, clubsProxy.Ping, attendanceProxy.Ping))

	r.Mount("/", handlers.Routes(handlers.Upstreams{
		Auth:       authProxy,
		Clubs:      clubsProxy,
		Attendance: attendanceProxy,
		Stations:   stationsProxy,
	}))

	// proxied WebSocket scan sessions outlive the write timeout
	srv := server.New(cfg.Server.Port, r, cfg.Server)
	srv.WriteTimeout = 0

	if err := server.Run(srv, "gateway"); err != nil {
		logger.Error("Gateway error", "error", err)
		os.Exit(1)
	}
}

func mustProxy(name, baseURL, prefix string) *proxy.ServiceProxy {
	p, err := proxy.NewServiceProxy(name, baseURL, prefix)
	if err != nil {
		logger.Error("Invalid upstream", "service", name, "error", err)
		os.Exit(1)
	}
	return p
}
