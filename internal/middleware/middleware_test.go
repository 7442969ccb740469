package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilanovax/dangi-sub000/internal/auth"
	"github.com/vilanovax/dangi-sub000/internal/metrics"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/pkg/api"
	"github.com/vilanovax/dangi-sub000/pkg/api/apiconnect"
)

const (
	privateProcedure = "/test.v1.TestService/Private"
	publicProcedure  = "/test.v1.TestService/Public"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

// whoami echoes the session identity found in the handler context.
func whoami(ctx context.Context, _ *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.User], error) {
	return connect.NewResponse(&api.User{ID: GetUserID(ctx), Email: GetEmail(ctx)}), nil
}

type testServer struct {
	jwt     *auth.JWTManager
	metrics *metrics.Metrics
	logs    *bytes.Buffer
	private *connect.Client[api.GetCurrentUserRequest, api.User]
	public  *connect.Client[api.GetCurrentUserRequest, api.User]
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		jwt:     auth.NewJWTManager("middleware-test-secret", time.Hour),
		metrics: metrics.New(),
		logs:    new(bytes.Buffer),
	}
	logger := slog.New(slog.NewTextHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opts := []connect.HandlerOption{
		connect.WithCodec(apiconnect.Codec{}),
		connect.WithInterceptors(
			MetricsInterceptor(s.metrics),
			RequireAuth(s.jwt, publicProcedure),
			LoggingInterceptor(logger),
		),
	}
	mux := http.NewServeMux()
	mux.Handle(privateProcedure, connect.NewUnaryHandler(privateProcedure, whoami, opts...))
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, whoami, opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	codec := connect.WithCodec(apiconnect.Codec{})
	s.private = connect.NewClient[api.GetCurrentUserRequest, api.User](server.Client(), server.URL+privateProcedure, codec)
	s.public = connect.NewClient[api.GetCurrentUserRequest, api.User](server.Client(), server.URL+publicProcedure, codec)
	return s
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	token, err := s.jwt.Generate(&models.User{ID: "user-1", Email: "ali@example.com"})
	require.NoError(t, err)
	return token
}

func request(authorization string) *connect.Request[api.GetCurrentUserRequest] {
	req := connect.NewRequest(&api.GetCurrentUserRequest{})
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	token := s.token(t)

	for _, header := range []string{"", "Bearer garbage", "Basic " + token} {
		_, err := s.private.CallUnary(ctx, request(header))
		require.Error(t, err, header)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err), header)
	}

	resp, err := s.private.CallUnary(ctx, request("Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.Msg.ID)
	assert.Equal(t, "ali@example.com", resp.Msg.Email)
}

func TestRequireAuthPublicProcedure(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.public.CallUnary(ctx, request(""))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.ID)

	// An invalid token on a public procedure is ignored, not rejected.
	resp, err = s.public.CallUnary(ctx, request("Bearer garbage"))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.ID)

	resp, err = s.public.CallUnary(ctx, request("Bearer "+s.token(t)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.Msg.ID)
}

func TestLoggingInterceptor(t *testing.T) {
	s := newTestServer(t)

	_, err := s.private.CallUnary(context.Background(), request("Bearer "+s.token(t)))
	require.NoError(t, err)

	logs := s.logs.String()
	assert.Contains(t, logs, "RPC ok")
	assert.Contains(t, logs, "procedure="+privateProcedure)
	assert.Contains(t, logs, "user_id=user-1")
}

func TestMetricsInterceptor(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.private.CallUnary(ctx, request(""))
	require.Error(t, err)
	_, err = s.private.CallUnary(ctx, request("Bearer "+s.token(t)))
	require.NoError(t, err)
	_, err = s.private.CallUnary(ctx, request("Bearer "+s.token(t)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	scrape := string(body)
	assert.Contains(t, scrape, `dangi_rpc_requests_total{code="ok",procedure="`+privateProcedure+`"} 2`)
	assert.Contains(t, scrape, `dangi_rpc_requests_total{code="unauthenticated",procedure="`+privateProcedure+`"} 1`)
	assert.True(t, strings.Contains(scrape, "dangi_rpc_duration_seconds_count"))
}
