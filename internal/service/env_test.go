package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vilanovax/dangi-sub000/internal/auth"
	"github.com/vilanovax/dangi-sub000/internal/cache"
	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/metrics"
	"github.com/vilanovax/dangi-sub000/internal/middleware"
	"github.com/vilanovax/dangi-sub000/internal/storage/sqlite"
	"github.com/vilanovax/dangi-sub000/pkg/api"
	"github.com/vilanovax/dangi-sub000/pkg/api/apiconnect"
	"github.com/vilanovax/dangi-sub000/pkg/logging"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerChanged
}

func (p *recordingPublisher) Publish(_ context.Context, e events.LedgerChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

// testEnv is a full server over a temporary database, reached through the
// generated clients.
type testEnv struct {
	t         *testing.T
	store     *sqlite.SQLiteStore
	cache     *cache.Memory
	published *recordingPublisher

	auth        *apiconnect.AuthServiceClient
	projects    *apiconnect.ProjectServiceClient
	expenses    *apiconnect.ExpenseServiceClient
	settlements *apiconnect.SettlementServiceClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	logger := logging.Discard()
	m := metrics.New()
	summaries := cache.NewMemory()
	published := &recordingPublisher{}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	summarizer := NewSummarizer(store, summaries, m, logger)
	notifier := NewLedgerNotifier(summaries, published, m, logger)

	opts := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager, apiconnect.AuthServiceRegisterProcedure, apiconnect.AuthServiceLoginProcedure),
		middleware.LoggingInterceptor(logger),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, store, jwtManager, logger), opts))
	mux.Handle(apiconnect.NewProjectServiceHandler(NewProjectService(store, summarizer, notifier, logger), opts))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, notifier, logger), opts))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(store, notifier, logger), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		t:           t,
		store:       store,
		cache:       summaries,
		published:   published,
		auth:        apiconnect.NewAuthServiceClient(server.Client(), server.URL),
		projects:    apiconnect.NewProjectServiceClient(server.Client(), server.URL),
		expenses:    apiconnect.NewExpenseServiceClient(server.Client(), server.URL),
		settlements: apiconnect.NewSettlementServiceClient(server.Client(), server.URL),
	}
}

// session is a registered user and their bearer token.
type session struct {
	userID string
	token  string
}

func (e *testEnv) register(email, name string) session {
	e.t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "correct-horse",
	}))
	require.NoError(e.t, err)
	return session{userID: resp.Msg.User.ID, token: resp.Msg.Token}
}

// as wraps msg in a request authenticated as s.
func as[T any](s session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+s.token)
	return req
}

// newProject creates a project owned by owner with extra unlinked participants.
func (e *testEnv) newProject(owner session, template string, names ...string) *api.Project {
	e.t.Helper()
	req := &api.CreateProjectRequest{Name: "Trip", Template: template, OwnerName: "A"}
	for _, n := range names {
		req.Participants = append(req.Participants, &api.NewParticipant{Name: n})
	}
	resp, err := e.projects.CreateProject(context.Background(), as(owner, req))
	require.NoError(e.t, err)
	return resp.Msg.Project
}

func (e *testEnv) summary(s session, projectID, period string) *api.Summary {
	e.t.Helper()
	resp, err := e.projects.GetProjectSummary(context.Background(), as(s, &api.GetProjectSummaryRequest{
		ProjectID: projectID,
		Period:    period,
	}))
	require.NoError(e.t, err)
	return resp.Msg.Summary
}

// cached reads the summary cache the way the next reader would.
func (e *testEnv) cached(projectID, period string) (*api.Summary, bool) {
	e.t.Helper()
	ctx := context.Background()
	gen, err := e.cache.Generation(ctx, projectID)
	require.NoError(e.t, err)
	s, ok, err := e.cache.Get(ctx, projectID, gen, period)
	require.NoError(e.t, err)
	return s, ok
}

func balancesByID(s *api.Summary) map[string]int64 {
	out := make(map[string]int64, len(s.Balances))
	for _, b := range s.Balances {
		out[b.ParticipantID] = b.Balance
	}
	return out
}

func requireCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}
