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

func TestSettlementScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")
	project := env.newProject(alice, "travel", "B", "C")
	a, b, c := project.Participants[0].ID, project.Participants[1].ID, project.Participants[2].ID

	_, err := env.expenses.CreateExpense(ctx, as(alice, &api.CreateExpenseRequest{
		ProjectID: project.ID, Title: "Lunch", Amount: 90, PaidByID: a,
	}))
	require.NoError(t, err)

	recorded, err := env.settlements.RecordSettlement(ctx, as(alice, &api.RecordSettlementRequest{
		ProjectID: project.ID,
		FromID:    b,
		ToID:      a,
		Amount:    30,
		Note:      "  cash ",
	}))
	require.NoError(t, err)
	assert.Equal(t, "cash", recorded.Msg.Settlement.Note)
	assert.NotZero(t, recorded.Msg.Settlement.Date)

	summary := env.summary(alice, project.ID, "")
	assert.Equal(t, map[string]int64{a: 30, b: 0, c: -30}, balancesByID(summary))
	assert.Equal(t, []*api.Transfer{{FromID: c, ToID: a, Amount: 30}}, summary.Settlements)

	for _, bal := range summary.Balances {
		if bal.ParticipantID == b {
			assert.Equal(t, int64(30), bal.SettlementsSent)
			assert.Equal(t, int64(30), bal.TotalShare)
		}
		if bal.ParticipantID == a {
			assert.Equal(t, int64(30), bal.SettlementsReceived)
			assert.Equal(t, int64(90), bal.TotalPaid)
		}
	}

	list, err := env.settlements.ListSettlements(ctx, as(alice, &api.ListSettlementsRequest{ProjectID: project.ID}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Settlements, 1)
	assert.Equal(t, recorded.Msg.Settlement.ID, list.Msg.Settlements[0].ID)

	_, err = env.settlements.DeleteSettlement(ctx, as(alice, &api.DeleteSettlementRequest{SettlementID: recorded.Msg.Settlement.ID}))
	require.NoError(t, err)

	summary = env.summary(alice, project.ID, "")
	assert.Equal(t, map[string]int64{a: 60, b: -30, c: -30}, balancesByID(summary))

	assert.Equal(t, []events.Kind{
		events.ExpenseCreated,
		events.SettlementRecorded,
		events.SettlementDeleted,
	}, env.published.kinds())
}

func TestRecordSettlementValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "Alice")
	project := env.newProject(alice, "travel", "B")
	a, b := project.Participants[0].ID, project.Participants[1].ID

	tests := []struct {
		name string
		req  *api.RecordSettlementRequest
	}{
		{"zero amount", &api.RecordSettlementRequest{FromID: b, ToID: a}},
		{"negative amount", &api.RecordSettlementRequest{FromID: b, ToID: a, Amount: -1}},
		{"self settlement", &api.RecordSettlementRequest{FromID: a, ToID: a, Amount: 10}},
		{"unknown sender", &api.RecordSettlementRequest{FromID: "ghost", ToID: a, Amount: 10}},
		{"unknown receiver", &api.RecordSettlementRequest{FromID: b, ToID: "ghost", Amount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ProjectID = project.ID
			_, err := env.settlements.RecordSettlement(context.Background(), as(alice, tt.req))
			requireCode(t, connect.CodeInvalidArgument, err)
		})
	}
}

func TestDeleteSettlementPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")
	bob := env.register("bob@example.com", "Bob")
	carol := env.register("carol@example.com", "Carol")

	resp, err := env.projects.CreateProject(ctx, as(alice, &api.CreateProjectRequest{
		Participants: []*api.NewParticipant{
			{Name: "Bob", UserID: bob.userID},
			{Name: "Carol", UserID: carol.userID},
		},
	}))
	require.NoError(t, err)
	project := resp.Msg.Project
	a, b := project.Participants[0].ID, project.Participants[1].ID

	// Alice records that Bob paid her.
	settlement, err := env.settlements.RecordSettlement(ctx, as(alice, &api.RecordSettlementRequest{
		ProjectID: project.ID, FromID: b, ToID: a, Amount: 10,
	}))
	require.NoError(t, err)

	_, err = env.settlements.DeleteSettlement(ctx, as(carol, &api.DeleteSettlementRequest{SettlementID: settlement.Msg.Settlement.ID}))
	requireCode(t, connect.CodePermissionDenied, err)

	// Bob is the sender.
	_, err = env.settlements.DeleteSettlement(ctx, as(bob, &api.DeleteSettlementRequest{SettlementID: settlement.Msg.Settlement.ID}))
	require.NoError(t, err)

	_, err = env.settlements.DeleteSettlement(ctx, as(bob, &api.DeleteSettlementRequest{SettlementID: settlement.Msg.Settlement.ID}))
	requireCode(t, connect.CodeNotFound, err)

	_, err = env.settlements.DeleteSettlement(ctx, as(bob, &api.DeleteSettlementRequest{}))
	requireCode(t, connect.CodeInvalidArgument, err)
}
