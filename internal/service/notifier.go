package service

import (
	"context"
	"log/slog"

	"github.com/vilanovax/dangi-sub000/internal/cache"
	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/metrics"
)

// LedgerNotifier runs after every committed ledger mutation: it drops the
// project's cached summaries and publishes a LedgerChanged event. Neither
// step can fail the mutation.
type LedgerNotifier struct {
	cache     cache.SummaryCache
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewLedgerNotifier returns a notifier. Nil cache or publisher become no-ops.
func NewLedgerNotifier(summaries cache.SummaryCache, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *LedgerNotifier {
	if summaries == nil {
		summaries = cache.Noop{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &LedgerNotifier{cache: summaries, publisher: publisher, metrics: m, logger: logger}
}

// Changed records that projectID's ledger changed.
func (n *LedgerNotifier) Changed(ctx context.Context, projectID string, kind events.Kind) {
	if err := n.cache.Invalidate(ctx, projectID); err != nil {
		n.logger.Warn("Failed to invalidate summary cache", "project_id", projectID, "error", err)
	}

	if err := n.publisher.Publish(ctx, events.NewLedgerChanged(projectID, kind)); err != nil {
		n.metrics.LedgerEvent("published", "error")
		n.logger.Warn("Failed to publish ledger event", "project_id", projectID, "kind", kind, "error", err)
		return
	}
	n.metrics.LedgerEvent("published", "ok")
}
