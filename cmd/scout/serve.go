package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chiTransport "github.com/kailas-cloud/scout/internal/transport/chi"
	"github.com/kailas-cloud/scout/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		a.logger.Info("Starting scout API server",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("env", a.env),
			zap.Int("http_port", a.cfg.HTTP.Port),
			zap.String("model", a.cfg.Recommender.Model),
			zap.Bool("budget", a.cfg.Recommender.Budget.Enabled()),
			zap.Bool("database", a.cfg.Database.Enabled()),
		)

		server := chiTransport.NewServer(a.search, a.health, a.logger)
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", a.cfg.HTTP.Port),
			Handler:      chiTransport.NewRouter(server, a.logger),
			ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
			BaseContext:  func(net.Listener) context.Context { return ctx },
		}

		return serve(ctx, srv, time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second, a.logger)
	},
}

// serve runs srv until ctx is cancelled, then drains in-flight requests within grace.
func serve(ctx context.Context, srv *http.Server, grace time.Duration, logger *zap.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
