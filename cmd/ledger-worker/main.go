// Command ledger-worker keeps cached project summaries warm. It consumes
// LedgerChanged events and recomputes the current period's summary of each
// changed project.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vilanovax/dangi-sub000/internal/cache"
	"github.com/vilanovax/dangi-sub000/internal/config"
	"github.com/vilanovax/dangi-sub000/internal/metrics"
	"github.com/vilanovax/dangi-sub000/internal/service"
	"github.com/vilanovax/dangi-sub000/internal/storage/sqlite"
	"github.com/vilanovax/dangi-sub000/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" || cfg.RedisURL == "" {
		logger.Error("ledger-worker needs AMQP_URL and REDIS_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return err
	}
	defer summaries.Close()

	m := metrics.New()
	w := newWorker(service.NewSummarizer(store, summaries, m, logger), m, logger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.consume(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	})
	g.Go(func() error {
		logger.Info("Metrics server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
