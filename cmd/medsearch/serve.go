package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/metrics"
	chiTransport "github.com/kailas-cloud/medsearch/internal/transport/chi"
	"github.com/kailas-cloud/medsearch/internal/usecase/engine"
	healthuc "github.com/kailas-cloud/medsearch/internal/usecase/health"
	queryuc "github.com/kailas-cloud/medsearch/internal/usecase/query"
	usageuc "github.com/kailas-cloud/medsearch/internal/usecase/usage"
	"github.com/kailas-cloud/medsearch/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("Starting medsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.Register()

	if err := a.initTracing(ctx); err != nil {
		return err
	}

	store := a.buildCache(ctx)
	encoder := a.buildEncoder(store)
	reranker, err := a.buildReranker()
	if err != nil {
		return err
	}
	generator, err := a.buildGenerator()
	if err != nil {
		return err
	}

	// The API answers 503 engine_not_ready until artifacts finish loading.
	holder := engine.NewHolder()
	loadCtx, cancelLoad := context.WithCancel(ctx)
	defer cancelLoad()
	loaded := holder.LoadAsync(loadCtx, a.engineLoader(encoder, reranker), logger)

	// Pass nil interfaces (not typed nil pointers) for absent components.
	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}

	usage := usageuc.NewCollector()
	querySvc := queryuc.New(holder, generator, usage, queryuc.Options{
		MaxDocs:     cfg.Generation.MaxDocs,
		SummaryDocs: cfg.Generation.SummaryDocs,
	})
	healthSvc := healthuc.New(holder, cachePinger, encoder)

	server := chiTransport.NewServer(querySvc, usage, healthSvc, holder, chiTransport.Defaults{
		TopK:         cfg.Search.DefaultTopK,
		UseReranking: *cfg.Search.UseReranking,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, logger),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	serveErr := make(chan error, 1)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	for {
		select {
		case err := <-loaded:
			// Load failures keep the API up in not-ready state; /health reports it.
			if err != nil {
				logger.Error("Engine failed to load; serving 503 until restart", zap.Error(err))
			}
			loaded = nil
			continue
		case err := <-serveErr:
			return fmt.Errorf("http server: %w", err)
		case <-quit:
			logger.Info("Received shutdown signal")
		}
		break
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
