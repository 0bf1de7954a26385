package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/persistence"
	"github.com/dfryer1193/spacetraveling/internal/config"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/internal/middleware"
	"github.com/dfryer1193/spacetraveling/internal/rest"
	"github.com/dfryer1193/spacetraveling/internal/scheduler"
	"github.com/dfryer1193/spacetraveling/shared/db/sqlite"
	webhookhttp "github.com/dfryer1193/spacetraveling/webhook/http"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	loadMoreEndpoint  = "/posts/v1/"
	readHeaderTimeout = 10 * time.Second
)

type ServeCmd struct {
	Addr string `help:"Listen address, overrides server.addr"`
}

func (c *ServeCmd) Run(cfg *config.Config) error {
	addr := cfg.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.Database.Path))
	if err := database.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	source, err := newContentSource(cfg, recorder)
	if err != nil {
		return err
	}

	postService := newPostService(cfg, source, persistence.NewSnapshotRepository(database.DB()), recorder, false)
	defer func() {
		if err := postService.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close post service")
		}
	}()

	renderer, err := newRenderer(cfg, loadMoreEndpoint)
	if err != nil {
		return err
	}

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(router, rest.NewHandlers(postService, renderer, database), metrics.HTTPHandler(reg))

	webhookHandler, err := webhookhttp.NewWebhookHandler(cfg.Webhook.Secret, postService)
	switch {
	case errors.Is(err, webhookhttp.ErrEmptySecret):
		log.Warn().Msg("WEBHOOK_SECRET is not set, the Prismic webhook is disabled")
	case err != nil:
		return err
	default:
		webhookHandler.RegisterRoutes(router)
	}

	if cfg.Site.Revalidate > 0 {
		sched, err := scheduler.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRevalidation(cfg.Site.Revalidate, postService); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
