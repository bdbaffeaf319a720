package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubhive/clubhive/pkg/config"
	"github.com/clubhive/clubhive/pkg/logger"
)

// New builds an http.Server with the configured timeouts.
func New(port string, handler http.Handler, cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down within 30 seconds.
// onShutdown hooks run after the listener closed.
func Run(srv *http.Server, name string, onShutdown ...func(context.Context)) error {
	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down " + name + " service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(name+" service shutdown error", "error", err)
		}
		for _, fn := range onShutdown {
			fn(ctx)
		}
		close(idle)
	}()

	logger.Info("Starting "+name+" service", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	<-idle
	return nil
}
