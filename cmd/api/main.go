package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"percently/internal/app"
	"percently/internal/calculator"
	"percently/internal/config"
	"percently/internal/observability"
	"percently/internal/server"
)

func main() {

	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load(os.Getenv("PERCENTLY_CONFIG"))
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing
	if cfg.Telemetry.Traces {
		traceShutdown, err := observability.InitTracing(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			panic(err)
		}
		defer traceShutdown(ctx)
	}

	// Metrics
	metricShutdown, err := initMetrics(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer metricShutdown(ctx)

	// Log export
	if cfg.Telemetry.Logs {
		logShutdown, err := observability.InitLogging(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			panic(err)
		}
		defer logShutdown(ctx)
	}

	// Storage
	svc, closeStores, err := app.NewFromConfig(ctx, cfg, observability.Logger)
	if err != nil {
		observability.Logger.Fatal("opening storage failed", zap.Error(err))
	}
	defer closeStores()

	// Router
	router := server.NewRouter(calculator.NewHandler(svc))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := serve(ctx, srv); err != nil {
		observability.Logger.Error("server stopped", zap.Error(err))
	}
}

// serve runs srv until SIGINT or SIGTERM, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		observability.Logger.Info("server started", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return waitForShutdown(srv)
	})

	return g.Wait()
}

func waitForShutdown(srv *http.Server) error {

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	observability.Logger.Info("server shutting down")

	return srv.Shutdown(ctx)
}
