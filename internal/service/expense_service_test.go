package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/pkg/api"
)

func shareAmounts(shares []*api.Share) map[string]int64 {
	out := make(map[string]int64, len(shares))
	for _, s := range shares {
		out[s.ParticipantID] = s.Amount
	}
	return out
}

func TestEqualSplitScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")
	project := env.newProject(alice, "travel", "B", "C")
	a, b, c := project.Participants[0].ID, project.Participants[1].ID, project.Participants[2].ID

	resp, err := env.expenses.CreateExpense(ctx, as(alice, &api.CreateExpenseRequest{
		ProjectID: project.ID,
		Title:     "Dinner",
		Amount:    300,
		PaidByID:  a,
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{a: 100, b: 100, c: 100}, shareAmounts(resp.Msg.Expense.Shares))
	assert.Equal(t, alice.userID, resp.Msg.Expense.CreatedBy)

	summary := env.summary(alice, project.ID, "")
	assert.Equal(t, map[string]int64{a: 200, b: -100, c: -100}, balancesByID(summary))
	assert.Equal(t, []*api.Transfer{
		{FromID: b, ToID: a, Amount: 100},
		{FromID: c, ToID: a, Amount: 100},
	}, summary.Settlements)
}

func TestPreviewSplit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")

	resp, err := env.projects.CreateProject(ctx, as(alice, &api.CreateProjectRequest{
		OwnerName:    "A",
		Participants: []*api.NewParticipant{{Name: "B"}, {Name: "C", Weight: 2}},
	}))
	require.NoError(t, err)
	project := resp.Msg.Project
	a, b, c := project.Participants[0].ID, project.Participants[1].ID, project.Participants[2].ID

	tests := []struct {
		name     string
		amount   int64
		split    *api.SplitSpec
		wantMode string
		want     map[string]int64
	}{
		{
			name:     "equal remainder goes first",
			amount:   100,
			wantMode: "equal",
			want:     map[string]int64{a: 34, b: 33, c: 33},
		},
		{
			name:     "equal subset",
			amount:   101,
			split:    &api.SplitSpec{Mode: "equal", ParticipantIDs: []string{b, c}},
			wantMode: "equal",
			want:     map[string]int64{b: 51, c: 50},
		},
		{
			name:     "weighted by participant weight",
			amount:   400,
			split:    &api.SplitSpec{Mode: "weighted"},
			wantMode: "weighted",
			want:     map[string]int64{a: 100, b: 100, c: 200},
		},
		{
			name:   "exact",
			amount: 90,
			split: &api.SplitSpec{Mode: "exact", Shares: []*api.Share{
				{ParticipantID: a, Amount: 60},
				{ParticipantID: c, Amount: 30},
			}},
			wantMode: "exact",
			want:     map[string]int64{a: 60, c: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.expenses.PreviewSplit(ctx, as(alice, &api.PreviewSplitRequest{
				ProjectID: project.ID,
				Amount:    tt.amount,
				Split:     tt.split,
			}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, resp.Msg.Mode)
			assert.Equal(t, tt.want, shareAmounts(resp.Msg.Shares))
		})
	}

	// Nothing was stored.
	list, err := env.expenses.ListExpenses(ctx, as(alice, &api.ListExpensesRequest{ProjectID: project.ID}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Expenses)
}

func TestDefaultSplitModePreference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")

	resp, err := env.projects.CreateProject(ctx, as(alice, &api.CreateProjectRequest{
		Participants: []*api.NewParticipant{{Name: "B", Weight: 3}},
	}))
	require.NoError(t, err)
	project := resp.Msg.Project
	a, b := project.Participants[0].ID, project.Participants[1].ID

	_, err = env.auth.UpdatePreferences(ctx, as(alice, &api.UpdatePreferencesRequest{
		Preferences: &api.Preferences{DefaultSplitMode: "weighted"},
	}))
	require.NoError(t, err)

	preview, err := env.expenses.PreviewSplit(ctx, as(alice, &api.PreviewSplitRequest{ProjectID: project.ID, Amount: 400}))
	require.NoError(t, err)
	assert.Equal(t, "weighted", preview.Msg.Mode)
	assert.Equal(t, map[string]int64{a: 100, b: 300}, shareAmounts(preview.Msg.Shares))
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "Alice")
	project := env.newProject(alice, "travel", "B")
	a, b := project.Participants[0].ID, project.Participants[1].ID

	tests := []struct {
		name string
		req  *api.CreateExpenseRequest
	}{
		{"missing title", &api.CreateExpenseRequest{Amount: 10, PaidByID: a}},
		{"zero amount", &api.CreateExpenseRequest{Title: "x", PaidByID: a}},
		{"negative amount", &api.CreateExpenseRequest{Title: "x", Amount: -5, PaidByID: a}},
		{"unknown payer", &api.CreateExpenseRequest{Title: "x", Amount: 10, PaidByID: "nobody"}},
		{"unknown mode", &api.CreateExpenseRequest{Title: "x", Amount: 10, PaidByID: a, Split: &api.SplitSpec{Mode: "random"}}},
		{"exact without shares", &api.CreateExpenseRequest{Title: "x", Amount: 10, PaidByID: a, Split: &api.SplitSpec{Mode: "exact"}}},
		{"exact sum mismatch", &api.CreateExpenseRequest{Title: "x", Amount: 10, PaidByID: a, Split: &api.SplitSpec{
			Mode:   "exact",
			Shares: []*api.Share{{ParticipantID: a, Amount: 4}, {ParticipantID: b, Amount: 4}},
		}}},
		{"duplicate participant", &api.CreateExpenseRequest{Title: "x", Amount: 10, PaidByID: a, Split: &api.SplitSpec{
			ParticipantIDs: []string{a, a},
		}}},
		{"share for outsider", &api.CreateExpenseRequest{Title: "x", Amount: 10, PaidByID: a, Split: &api.SplitSpec{
			ParticipantIDs: []string{a, "outsider"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ProjectID = project.ID
			_, err := env.expenses.CreateExpense(context.Background(), as(alice, tt.req))
			requireCode(t, connect.CodeInvalidArgument, err)
		})
	}
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")
	project := env.newProject(alice, "travel", "B", "C")
	a, b, c := project.Participants[0].ID, project.Participants[1].ID, project.Participants[2].ID

	older, err := env.expenses.CreateExpense(ctx, as(alice, &api.CreateExpenseRequest{
		ProjectID: project.ID, Title: "Train", Amount: 90, PaidByID: a, Date: 1000,
	}))
	require.NoError(t, err)
	newer, err := env.expenses.CreateExpense(ctx, as(alice, &api.CreateExpenseRequest{
		ProjectID: project.ID, Title: "Museum", Amount: 30, PaidByID: b, Date: 2000,
	}))
	require.NoError(t, err)

	list, err := env.expenses.ListExpenses(ctx, as(alice, &api.ListExpensesRequest{ProjectID: project.ID}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Expenses, 2)
	assert.Equal(t, newer.Msg.Expense.ID, list.Msg.Expenses[0].ID)
	assert.Equal(t, older.Msg.Expense.ID, list.Msg.Expenses[1].ID)

	// Changing the amount re-splits; the title is kept.
	updated, err := env.expenses.UpdateExpense(ctx, as(alice, &api.UpdateExpenseRequest{
		ExpenseID: older.Msg.Expense.ID,
		Amount:    120,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Train", updated.Msg.Expense.Title)
	assert.Equal(t, map[string]int64{a: 40, b: 40, c: 40}, shareAmounts(updated.Msg.Expense.Shares))

	exact, err := env.expenses.UpdateExpense(ctx, as(alice, &api.UpdateExpenseRequest{
		ExpenseID: older.Msg.Expense.ID,
		Split: &api.SplitSpec{Mode: "exact", Shares: []*api.Share{
			{ParticipantID: a, Amount: 100},
			{ParticipantID: c, Amount: 20},
		}},
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{a: 100, c: 20}, shareAmounts(exact.Msg.Expense.Shares))

	// Changing only the title keeps the exact shares.
	renamed, err := env.expenses.UpdateExpense(ctx, as(alice, &api.UpdateExpenseRequest{
		ExpenseID: older.Msg.Expense.ID,
		Title:     "Night train",
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{a: 100, c: 20}, shareAmounts(renamed.Msg.Expense.Shares))

	got, err := env.expenses.GetExpense(ctx, as(alice, &api.GetExpenseRequest{ExpenseID: older.Msg.Expense.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Night train", got.Msg.Expense.Title)
	assert.Equal(t, int64(120), got.Msg.Expense.Amount)

	_, err = env.expenses.DeleteExpense(ctx, as(alice, &api.DeleteExpenseRequest{ExpenseID: newer.Msg.Expense.ID}))
	require.NoError(t, err)

	_, err = env.expenses.GetExpense(ctx, as(alice, &api.GetExpenseRequest{ExpenseID: newer.Msg.Expense.ID}))
	requireCode(t, connect.CodeNotFound, err)

	summary := env.summary(alice, project.ID, "")
	assert.Equal(t, map[string]int64{a: 20, b: 0, c: -20}, balancesByID(summary))

	assert.Equal(t, []events.Kind{
		events.ExpenseCreated,
		events.ExpenseCreated,
		events.ExpenseUpdated,
		events.ExpenseUpdated,
		events.ExpenseUpdated,
		events.ExpenseDeleted,
	}, env.published.kinds())
}

func TestExpensePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")
	bob := env.register("bob@example.com", "Bob")
	carol := env.register("carol@example.com", "Carol")
	dave := env.register("dave@example.com", "Dave")

	resp, err := env.projects.CreateProject(ctx, as(alice, &api.CreateProjectRequest{
		Participants: []*api.NewParticipant{
			{Name: "Bob", UserID: bob.userID},
			{Name: "Carol", UserID: carol.userID},
		},
	}))
	require.NoError(t, err)
	project := resp.Msg.Project
	a, b := project.Participants[0].ID, project.Participants[1].ID

	byAlice, err := env.expenses.CreateExpense(ctx, as(alice, &api.CreateExpenseRequest{
		ProjectID: project.ID, Title: "Groceries", Amount: 60, PaidByID: a,
	}))
	require.NoError(t, err)

	// Carol records an expense Bob paid for.
	paidByBob, err := env.expenses.CreateExpense(ctx, as(carol, &api.CreateExpenseRequest{
		ProjectID: project.ID, Title: "Gas", Amount: 30, PaidByID: b,
	}))
	require.NoError(t, err)

	_, err = env.expenses.CreateExpense(ctx, as(dave, &api.CreateExpenseRequest{
		ProjectID: project.ID, Title: "Sneaky", Amount: 30, PaidByID: a,
	}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.expenses.GetExpense(ctx, as(dave, &api.GetExpenseRequest{ExpenseID: byAlice.Msg.Expense.ID}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.expenses.UpdateExpense(ctx, as(bob, &api.UpdateExpenseRequest{ExpenseID: byAlice.Msg.Expense.ID, Title: "Mine"}))
	requireCode(t, connect.CodePermissionDenied, err)

	_, err = env.expenses.DeleteExpense(ctx, as(bob, &api.DeleteExpenseRequest{ExpenseID: byAlice.Msg.Expense.ID}))
	requireCode(t, connect.CodePermissionDenied, err)

	// The payer and the recorder may both edit.
	_, err = env.expenses.UpdateExpense(ctx, as(bob, &api.UpdateExpenseRequest{ExpenseID: paidByBob.Msg.Expense.ID, Title: "Fuel"}))
	require.NoError(t, err)
	_, err = env.expenses.UpdateExpense(ctx, as(carol, &api.UpdateExpenseRequest{ExpenseID: paidByBob.Msg.Expense.ID, Title: "Diesel"}))
	require.NoError(t, err)

	// The owner may edit anything.
	_, err = env.expenses.DeleteExpense(ctx, as(alice, &api.DeleteExpenseRequest{ExpenseID: paidByBob.Msg.Expense.ID}))
	require.NoError(t, err)
}
