package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scieloorg/documentstore/internal/config"
	"github.com/scieloorg/documentstore/internal/httpapi"
	"github.com/scieloorg/documentstore/internal/metrics"
	"github.com/scieloorg/documentstore/internal/objectstore"
	"github.com/scieloorg/documentstore/internal/services"
	"github.com/scieloorg/documentstore/internal/store/mongo"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(settings)
			return serve(settings)
		},
	}
}

func serve(settings config.Settings) error {
	db := mongo.New(settings.MongoDSN, settings.MongoDBName)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB client")
		}
	}()

	client := objectstore.New(settings.MaxRetries, settings.BackoffFactor)
	handlers := services.NewHandlers(db.SessionFactory(), client.AssetsGetter())
	srv := &httpapi.Server{Handlers: handlers}

	if settings.PrometheusEnabled {
		metrics.StartExporter(settings.PrometheusPort)
	}

	httpServer := &http.Server{
		Addr:         settings.HTTPAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", settings.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var received os.Signal
	select {
	case err := <-serveErr:
		return err
	case received = <-sigChan:
		log.Info().Str("signal", received.String()).Msg("shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
	if received == syscall.SIGTERM {
		return errTerminated
	}
	return errInterrupted
}
