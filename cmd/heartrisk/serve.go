package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/app"
	"github.com/Krimson/heart-risk/internal/assessment"
	"github.com/Krimson/heart-risk/internal/canary"
	"github.com/Krimson/heart-risk/internal/feed"
	"github.com/Krimson/heart-risk/internal/httpapi"
	"github.com/Krimson/heart-risk/internal/scoring"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP form and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	cfg, logger := c.cfg, c.logger

	classifier, closers, err := app.LoadClassifier(ctx, cfg, logger, true)
	defer closers.Close()
	if err != nil {
		logger.Warn("starting without model", slog.String("error", err.Error()))
	}
	scorer := scoring.NewScorer(classifier)

	hub := feed.NewHub(cfg.CORSOrigin, logger)
	go hub.Run(ctx)

	var publisher feed.Publisher = hub
	if cfg.RedisAddr != "" {
		bridge := feed.NewRedisBridge(feed.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.FeedChannel, hub, logger)
		defer bridge.Close()

		if err := bridge.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, feed stays in-process", slog.String("error", err.Error()))
		} else {
			publisher = bridge
			go func() {
				if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("redis feed stopped", slog.String("error", err.Error()))
				}
			}()
		}
	}

	svc := assessment.NewService(advisory.NewValidator(cfg.Advisory), scorer, publisher, logger)

	probe := canary.NewProbe(scorer, logger)
	if err := probe.Start(ctx, cfg.CanarySchedule); err != nil {
		return err
	}
	defer probe.Stop()

	router := httpapi.NewRouter(
		httpapi.NewHandler(svc, probe, logger),
		httpapi.NewWeb(svc, logger),
		hub.HandleWebSocket,
		cfg.CORSOrigin,
	)

	address := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", address),
			slog.Bool("model_loaded", scorer.Available()),
			slog.String("swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", address)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
