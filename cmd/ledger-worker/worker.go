package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/metrics"
	"github.com/vilanovax/dangi-sub000/internal/service"
	"github.com/vilanovax/dangi-sub000/internal/storage"
)

type worker struct {
	summaries *service.Summarizer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func newWorker(summaries *service.Summarizer, m *metrics.Metrics, logger *slog.Logger) *worker {
	return &worker{summaries: summaries, metrics: m, logger: logger, now: time.Now}
}

// handle drops the project's cached summaries and recomputes the current
// period. Events for projects that no longer exist are acknowledged.
func (w *worker) handle(ctx context.Context, event events.LedgerChanged) error {
	logger := w.logger.With("project_id", event.ProjectID, "kind", event.Kind)

	if err := w.summaries.Invalidate(ctx, event.ProjectID); err != nil {
		w.metrics.LedgerEvent("consumed", "error")
		logger.Warn("Failed to invalidate summaries", "error", err)
		return err
	}
	if event.Kind == events.ProjectDeleted {
		w.metrics.LedgerEvent("consumed", "ok")
		return nil
	}

	period := calculator.PeriodOf(w.now())
	_, err := w.summaries.Refresh(ctx, event.ProjectID, period)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("Project is gone; nothing to refresh")
	case errors.Is(err, calculator.ErrIntegrity), errors.Is(err, calculator.ErrUnbalanced):
		// Retrying cannot fix a broken ledger.
		logger.Error("Ledger cannot be summarized", "error", err)
		w.metrics.LedgerEvent("consumed", "dropped")
		return nil
	case err != nil:
		w.metrics.LedgerEvent("consumed", "error")
		logger.Warn("Failed to refresh summary", "error", err)
		return err
	}

	w.metrics.LedgerEvent("consumed", "ok")
	logger.Debug("Summary refreshed", "period", period.String())
	return nil
}

// consume reads events until ctx is done, redialing the broker with backoff
// whenever the connection drops.
func (w *worker) consume(ctx context.Context, url, exchange, queue string) error {
	for attempt := 0; ; attempt++ {
		client, err := events.Dial(url, exchange, queue)
		if err == nil {
			attempt = 0
			err = client.Consume(ctx, w.handle)
			client.Close()
		}
		if ctx.Err() != nil {
			return nil
		}

		delay := events.Backoff(attempt)
		w.logger.Warn("Ledger event consumer disconnected", "error", err, "retry_in", delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
