// Package main initializes and starts the Matrix Car Dashboard HTTP server,
// setting up configuration, logging, the backend client, metrics, the view
// registry, and the page handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/cardash/internal/backend"
	"github.com/atinyakov/cardash/internal/config"
	"github.com/atinyakov/cardash/internal/logger"
	"github.com/atinyakov/cardash/internal/observability"
	"github.com/atinyakov/cardash/internal/render"
	"github.com/atinyakov/cardash/internal/server/handler/http"
	"github.com/atinyakov/cardash/internal/view"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownGrace = 5 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Metrics registry with the standard process collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	// Backend client for the mock car API.
	httpClient, err := backend.NewHTTPClient(options.CAFile, options.RequestTimeout.Std())
	if err != nil {
		zapLogger.Fatal("failed to build backend transport", zap.Error(err))
	}
	api, err := backend.NewClient(options.BaseURL,
		backend.WithHTTPClient(httpClient),
		backend.WithFetchAttempts(options.FetchAttempts),
		backend.WithLogger(zapLogger),
		backend.WithMetrics(metrics),
	)
	if err != nil {
		zapLogger.Fatal("failed to create backend client", zap.Error(err))
	}

	policy, err := view.ParseResetPolicy(options.ResetPolicy)
	if err != nil {
		zapLogger.Fatal("invalid reset policy", zap.Error(err))
	}

	renderer, err := render.New(render.WithLogger(zapLogger))
	if err != nil {
		zapLogger.Fatal("failed to load templates", zap.Error(err))
	}

	views := view.NewRegistry(metrics)
	pages := &http.PageHandler{
		Accounts:    api,
		Cars:        api,
		Views:       views,
		Renderer:    renderer,
		ResetPolicy: policy,
		RenderWait:  options.RenderWait.Std(),
		Logger:      zapLogger,
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(pages, metrics, reg, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Unmount views nobody has touched for a while.
	view.StartReaper(gctx, views, cmp.Or(options.ViewTTL.Std()/2, time.Minute), options.ViewTTL.Std(), zapLogger)

	g.Go(func() error {
		zapLogger.Info("starting HTTP server",
			zap.String("addr", options.Addr),
			zap.String("backend", api.BaseURL()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		zapLogger.Info("shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
}
