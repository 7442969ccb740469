package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vilanovax/dangi-sub000/internal/cache"
	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/metrics"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/api"
)

// ComputeSummary runs the balance engine over a snapshot. Charge debts are
// included for building projects with a charge rule, up to period.
func ComputeSummary(snap *storage.Snapshot, period calculator.Period) (*api.Summary, error) {
	project := snap.Project

	expenses := make([]calculator.LedgerExpense, len(snap.Expenses))
	for i, e := range snap.Expenses {
		shares := make([]calculator.Share, len(e.Shares))
		for j, s := range e.Shares {
			shares[j] = calculator.Share{ParticipantID: s.ParticipantID, Amount: s.Amount}
		}
		expenses[i] = calculator.LedgerExpense{ID: e.ID, Amount: e.Amount, PayerID: e.PaidByID, Shares: shares}
	}

	settlements := make([]calculator.LedgerSettlement, len(snap.Settlements))
	for i, s := range snap.Settlements {
		settlements[i] = calculator.LedgerSettlement{ID: s.ID, FromID: s.FromID, ToID: s.ToID, Amount: s.Amount}
	}

	ledger, err := calculator.Aggregate(project.ParticipantIDs(), expenses, settlements)
	if err != nil {
		return nil, fmt.Errorf("aggregate project %s: %w", project.ID, err)
	}
	transfers, err := calculator.Settle(ledger.Net())
	if err != nil {
		return nil, fmt.Errorf("settle project %s: %w", project.ID, err)
	}

	summary := &api.Summary{
		ProjectID:   project.ID,
		Currency:    project.Currency,
		Period:      period.String(),
		Balances:    make([]*api.Balance, len(ledger.Balances)),
		Settlements: make([]*api.Transfer, len(transfers)),
	}
	for i, b := range ledger.Balances {
		summary.Balances[i] = &api.Balance{
			ParticipantID:       b.ParticipantID,
			TotalPaid:           b.TotalPaid,
			TotalShare:          b.TotalShare,
			SettlementsSent:     b.SettlementsSent,
			SettlementsReceived: b.SettlementsReceived,
			Balance:             b.Balance,
		}
	}
	for i, t := range transfers {
		summary.Settlements[i] = &api.Transfer{FromID: t.From, ToID: t.To, Amount: t.Amount}
	}

	if !project.Template.HasCharges() || project.ChargeRule == nil {
		return summary, nil
	}

	start, err := calculator.ParsePeriod(project.ChargeRule.StartPeriod)
	if err != nil {
		return nil, fmt.Errorf("charge rule of project %s: %w", project.ID, err)
	}

	// Removed participants no longer accrue dues.
	var liable []calculator.ChargeParticipant
	active := make(map[string]bool)
	for _, p := range project.Participants {
		if p.Active() {
			liable = append(liable, calculator.ChargeParticipant{ParticipantID: p.ID, Units: max(p.Weight, 1)})
			active[p.ID] = true
		}
	}
	var payments []calculator.ChargePaymentEntry
	for _, pay := range snap.ChargePayments {
		if !active[pay.ParticipantID] {
			continue
		}
		pp, err := calculator.ParsePeriod(pay.Period)
		if err != nil {
			return nil, fmt.Errorf("charge payment %s: %w", pay.ID, err)
		}
		payments = append(payments, calculator.ChargePaymentEntry{ParticipantID: pay.ParticipantID, Period: pp, Amount: pay.Amount})
	}

	charges, err := calculator.ChargeDebts(
		calculator.ChargeTerms{AmountPerUnit: project.ChargeRule.AmountPerUnit, Start: start},
		period, liable, payments,
	)
	if err != nil {
		return nil, fmt.Errorf("charge debts of project %s: %w", project.ID, err)
	}

	summary.ChargeDebts = make([]*api.ChargeDebt, len(charges.Debts))
	for i, d := range charges.Debts {
		summary.ChargeDebts[i] = &api.ChargeDebt{
			ParticipantID: d.ParticipantID,
			ChargeDebt:    d.ChargeDebt,
			PaidMonths:    d.PaidMonths,
			TotalMonths:   d.TotalMonths,
		}
	}
	summary.TotalChargeDebt = charges.TotalChargeDebt
	return summary, nil
}

// Summarizer serves project summaries through the summary cache.
type Summarizer struct {
	store   storage.Store
	cache   cache.SummaryCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSummarizer returns a Summarizer. A nil cache disables caching; nil
// metrics disables recording.
func NewSummarizer(store storage.Store, summaries cache.SummaryCache, m *metrics.Metrics, logger *slog.Logger) *Summarizer {
	if summaries == nil {
		summaries = cache.Noop{}
	}
	return &Summarizer{store: store, cache: summaries, metrics: m, logger: logger}
}

// Summary returns the cached summary for the period, computing it on a miss.
// Cache failures are logged and fall back to computing.
func (s *Summarizer) Summary(ctx context.Context, projectID string, period calculator.Period) (*api.Summary, error) {
	gen, err := s.cache.Generation(ctx, projectID)
	if err != nil {
		s.metrics.CacheResult("error")
		s.logger.Warn("Summary cache read failed", "project_id", projectID, "error", err)
		return s.compute(ctx, projectID, period)
	}

	cached, ok, err := s.cache.Get(ctx, projectID, gen, period.String())
	switch {
	case err != nil:
		s.metrics.CacheResult("error")
		s.logger.Warn("Summary cache read failed", "project_id", projectID, "error", err)
	case ok:
		s.metrics.CacheResult("hit")
		return cached, nil
	default:
		s.metrics.CacheResult("miss")
	}
	return s.refresh(ctx, projectID, gen, period)
}

// Refresh recomputes the summary from a fresh snapshot and stores it.
func (s *Summarizer) Refresh(ctx context.Context, projectID string, period calculator.Period) (*api.Summary, error) {
	gen, err := s.cache.Generation(ctx, projectID)
	if err != nil {
		s.logger.Warn("Summary cache read failed", "project_id", projectID, "error", err)
		return s.compute(ctx, projectID, period)
	}
	return s.refresh(ctx, projectID, gen, period)
}

// refresh stores the result under gen, which must have been read before the
// snapshot. A mutation committed in between has advanced the generation, so
// the stale result is never served.
func (s *Summarizer) refresh(ctx context.Context, projectID string, gen int64, period calculator.Period) (*api.Summary, error) {
	summary, err := s.compute(ctx, projectID, period)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, projectID, gen, period.String(), summary); err != nil {
		s.logger.Warn("Summary cache write failed", "project_id", projectID, "error", err)
	}
	return summary, nil
}

func (s *Summarizer) compute(ctx context.Context, projectID string, period calculator.Period) (*api.Summary, error) {
	snap, err := s.store.LedgerSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary, err := ComputeSummary(snap, period)
	if err != nil {
		s.logger.Error("Ledger computation failed", "project_id", projectID, "error", err)
		return nil, err
	}
	s.metrics.ObserveTransfers(len(summary.Settlements))
	return summary, nil
}

// Invalidate retires cached summaries of a project.
func (s *Summarizer) Invalidate(ctx context.Context, projectID string) error {
	return s.cache.Invalidate(ctx, projectID)
}
