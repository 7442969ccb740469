package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/logging"
)

func buildingSnapshot() *storage.Snapshot {
	return &storage.Snapshot{
		Project: &models.Project{
			ID:       "p1",
			Template: models.TemplateBuilding,
			Currency: "IRR",
			Participants: []models.Participant{
				{ID: "u1", Weight: 1},
				{ID: "u2", Weight: 2},
				{ID: "gone", Weight: 1, RemovedAt: 1700000000},
			},
			ChargeRule: &models.ChargeRule{AmountPerUnit: 1000, StartPeriod: "2026-01"},
		},
		Expenses: []*models.Expense{{
			ID: "e1", Amount: 300, PaidByID: "u1",
			Shares: []models.ExpenseShare{{ParticipantID: "u1", Amount: 150}, {ParticipantID: "u2", Amount: 150}},
		}},
		ChargePayments: []*models.ChargePayment{
			{ID: "c1", ParticipantID: "u2", Period: "2026-01", Amount: 2000},
			{ID: "c2", ParticipantID: "gone", Period: "2026-01", Amount: 1000},
		},
	}
}

func TestComputeSummary(t *testing.T) {
	summary, err := ComputeSummary(buildingSnapshot(), calculator.Period{Year: 2026, Month: time.February})
	require.NoError(t, err)

	assert.Equal(t, "2026-02", summary.Period)
	require.Len(t, summary.Balances, 3)
	assert.Equal(t, int64(150), summary.Balances[0].Balance)
	assert.Equal(t, int64(-150), summary.Balances[1].Balance)
	assert.Equal(t, int64(0), summary.Balances[2].Balance)
	require.Len(t, summary.Settlements, 1)

	// Removed participants accrue no dues and their old payments are ignored.
	require.Len(t, summary.ChargeDebts, 2)
	assert.Equal(t, "u1", summary.ChargeDebts[0].ParticipantID)
	assert.Equal(t, int64(2000), summary.ChargeDebts[0].ChargeDebt)
	assert.Equal(t, "u2", summary.ChargeDebts[1].ParticipantID)
	assert.Equal(t, int64(2000), summary.ChargeDebts[1].ChargeDebt)
	assert.Equal(t, 1, summary.ChargeDebts[1].PaidMonths)
	assert.Equal(t, int64(4000), summary.TotalChargeDebt)
}

func TestComputeSummaryWithoutChargeRule(t *testing.T) {
	snap := buildingSnapshot()
	snap.Project.ChargeRule = nil

	summary, err := ComputeSummary(snap, calculator.Period{Year: 2026, Month: time.February})
	require.NoError(t, err)
	assert.Empty(t, summary.ChargeDebts)
	assert.Zero(t, summary.TotalChargeDebt)
}

func TestComputeSummaryIntegrity(t *testing.T) {
	snap := buildingSnapshot()
	snap.Expenses[0].Shares[1].Amount = 100

	_, err := ComputeSummary(snap, calculator.Period{Year: 2026, Month: time.February})
	require.ErrorIs(t, err, calculator.ErrIntegrity)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(toConnectError(err)))
}

// afterSnapshotStore runs hook once, right after the first ledger snapshot
// has been read.
type afterSnapshotStore struct {
	storage.Store
	once sync.Once
	hook func()
}

func (s *afterSnapshotStore) LedgerSnapshot(ctx context.Context, projectID string) (*storage.Snapshot, error) {
	snap, err := s.Store.LedgerSnapshot(ctx, projectID)
	s.once.Do(s.hook)
	return snap, err
}

func TestSummaryWrittenDuringChangeIsNotServed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")
	project := env.newProject(alice, "travel", "B")
	a, b := project.Participants[0].ID, project.Participants[1].ID
	period, err := calculator.ParsePeriod("2026-05")
	require.NoError(t, err)

	notifier := NewLedgerNotifier(env.cache, nil, nil, logging.Discard())
	store := &afterSnapshotStore{Store: env.store, hook: func() {
		require.NoError(t, env.store.CreateExpense(ctx, &models.Expense{
			ProjectID: project.ID,
			Title:     "Fuel",
			Amount:    100,
			PaidByID:  a,
			Shares:    []models.ExpenseShare{{ParticipantID: a, Amount: 50}, {ParticipantID: b, Amount: 50}},
			CreatedBy: alice.userID,
		}))
		notifier.Changed(ctx, project.ID, events.ExpenseCreated)
	}}
	summarizer := NewSummarizer(store, env.cache, nil, logging.Discard())

	// Computed from the ledger as it was before the expense.
	first, err := summarizer.Summary(ctx, project.ID, period)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balancesByID(first)[a])

	_, ok := env.cached(project.ID, "2026-05")
	assert.False(t, ok)

	second, err := summarizer.Summary(ctx, project.ID, period)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balancesByID(second)[a])
	assert.Equal(t, int64(50), balancesByID(env.summary(alice, project.ID, "2026-05"))[a])
}
