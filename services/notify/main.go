package main

import (
	"context"
	"os"

	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/events"
	"github.com/clubhive/clubhive/pkg/logger"
	mw "github.com/clubhive/clubhive/pkg/middleware"
	"github.com/clubhive/clubhive/pkg/obs"
	"github.com/clubhive/clubhive/pkg/server"
	"github.com/clubhive/clubhive/services/notify/internal/mailer"
	"github.com/clubhive/clubhive/services/notify/internal/notifier"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, "notify", cfg.Tracing)
	if err != nil {
		logger.Error("Failed to init tracing", "error", err)
		os.Exit(1)
	}

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "notify")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}

	var mail mailer.Service = mailer.NewDevMailer()
	if cfg.Email.MailerSendKey != "" && !cfg.Email.DevMode {
		ms, err := mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
		if err != nil {
			logger.Error("Failed to init MailerSend", "error", err)
			os.Exit(1)
		}
		mail = ms
		logger.Info("Using MailerSend mailer", "from", cfg.Email.FromEmail)
	} else {
		logger.Info("Using dev mailer, mail is logged only")
	}

	n := notifier.New(mail, cfg.Email.AppURL, cfg.Email.Workers)
	if err := n.Subscribe(eventBus, cfg.NATS.Queue+"-notify"); err != nil {
		logger.Error("Failed to subscribe", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health())

	srv := server.New("8086", r, cfg.Server)
	err = server.Run(srv, "notify", func(ctx context.Context) {
		if err := eventBus.Close(); err != nil {
			logger.Error("Failed to drain NATS", "error", err)
		}
		n.Wait()
		shutdownTracer(ctx)
	})
	if err != nil {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}
