package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService.
const AuthServiceName = "dangi.v1.AuthService"

const (
	AuthServiceRegisterProcedure          = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure             = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure    = "/" + AuthServiceName + "/GetCurrentUser"
	AuthServiceGetPreferencesProcedure    = "/" + AuthServiceName + "/GetPreferences"
	AuthServiceUpdatePreferencesProcedure = "/" + AuthServiceName + "/UpdatePreferences"
)

// AuthServiceHandler is implemented by the server side of the AuthService.
// Authentication and per-user preferences.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	GetPreferences(context.Context, *connect.Request[api.GetPreferencesRequest]) (*connect.Response[api.GetPreferencesResponse], error)
	UpdatePreferences(context.Context, *connect.Request[api.UpdatePreferencesRequest]) (*connect.Response[api.UpdatePreferencesResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler serving every AuthService procedure.
// It returns the path to mount the handler on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	mux.Handle(AuthServiceGetCurrentUserProcedure, connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	mux.Handle(AuthServiceGetPreferencesProcedure, connect.NewUnaryHandler(AuthServiceGetPreferencesProcedure, svc.GetPreferences, opts...))
	mux.Handle(AuthServiceUpdatePreferencesProcedure, connect.NewUnaryHandler(AuthServiceUpdatePreferencesProcedure, svc.UpdatePreferences, opts...))
	return "/" + AuthServiceName + "/", mux
}

// AuthServiceClient calls a remote AuthService.
type AuthServiceClient struct {
	register          *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login             *connect.Client[api.LoginRequest, api.LoginResponse]
	getCurrentUser    *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
	getPreferences    *connect.Client[api.GetPreferencesRequest, api.GetPreferencesResponse]
	updatePreferences *connect.Client[api.UpdatePreferencesRequest, api.UpdatePreferencesResponse]
}

// NewAuthServiceClient returns a client for the AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:          connect.NewClient[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:             connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		getCurrentUser:    connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
		getPreferences:    connect.NewClient[api.GetPreferencesRequest, api.GetPreferencesResponse](httpClient, baseURL+AuthServiceGetPreferencesProcedure, opts...),
		updatePreferences: connect.NewClient[api.UpdatePreferencesRequest, api.UpdatePreferencesResponse](httpClient, baseURL+AuthServiceUpdatePreferencesProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetPreferences(ctx context.Context, req *connect.Request[api.GetPreferencesRequest]) (*connect.Response[api.GetPreferencesResponse], error) {
	return c.getPreferences.CallUnary(ctx, req)
}

func (c *AuthServiceClient) UpdatePreferences(ctx context.Context, req *connect.Request[api.UpdatePreferencesRequest]) (*connect.Response[api.UpdatePreferencesResponse], error) {
	return c.updatePreferences.CallUnary(ctx, req)
}
