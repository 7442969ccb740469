package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilanovax/dangi-sub000/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice@Example.com", "Alice")
	assert.NotEmpty(t, alice.userID)
	assert.NotEmpty(t, alice.token)

	resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, alice.userID, resp.Msg.User.ID)
	assert.Equal(t, "alice@example.com", resp.Msg.User.Email)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}))
	requireCode(t, connect.CodeUnauthenticated, err)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	}))
	requireCode(t, connect.CodeUnauthenticated, err)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice@example.com", "Alice")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		want connect.Code
	}{
		{
			name: "duplicate email",
			req:  &api.RegisterRequest{Email: "ALICE@example.com", DisplayName: "Other", Password: "long-enough"},
			want: connect.CodeAlreadyExists,
		},
		{
			name: "weak password",
			req:  &api.RegisterRequest{Email: "bob@example.com", DisplayName: "Bob", Password: "short"},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "bad email",
			req:  &api.RegisterRequest{Email: "not-an-email", DisplayName: "Bob", Password: "long-enough"},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "missing name",
			req:  &api.RegisterRequest{Email: "bob@example.com", Password: "long-enough"},
			want: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), connect.NewRequest(tt.req))
			requireCode(t, tt.want, err)
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")

	_, err := env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	requireCode(t, connect.CodeUnauthenticated, err)

	bad := connect.NewRequest(&api.GetCurrentUserRequest{})
	bad.Header().Set("Authorization", "Bearer not-a-token")
	_, err = env.auth.GetCurrentUser(ctx, bad)
	requireCode(t, connect.CodeUnauthenticated, err)

	resp, err := env.auth.GetCurrentUser(ctx, as(alice, &api.GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.Msg.User.DisplayName)
	require.NotNil(t, resp.Msg.Preferences)
	assert.Empty(t, resp.Msg.Preferences.DefaultSplitMode)
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register("alice@example.com", "Alice")

	_, err := env.auth.UpdatePreferences(ctx, as(alice, &api.UpdatePreferencesRequest{
		Preferences: &api.Preferences{DefaultSplitMode: "weighted", SelectedPeriod: "2026-03"},
	}))
	require.NoError(t, err)

	resp, err := env.auth.GetPreferences(ctx, as(alice, &api.GetPreferencesRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "weighted", resp.Msg.Preferences.DefaultSplitMode)
	assert.Equal(t, "2026-03", resp.Msg.Preferences.SelectedPeriod)

	_, err = env.auth.UpdatePreferences(ctx, as(alice, &api.UpdatePreferencesRequest{
		Preferences: &api.Preferences{DefaultSplitMode: "random"},
	}))
	requireCode(t, connect.CodeInvalidArgument, err)

	_, err = env.auth.UpdatePreferences(ctx, as(alice, &api.UpdatePreferencesRequest{
		Preferences: &api.Preferences{SelectedPeriod: "March"},
	}))
	requireCode(t, connect.CodeInvalidArgument, err)
}
