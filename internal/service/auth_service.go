package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/internal/auth"
	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/api"
	"github.com/vilanovax/dangi-sub000/pkg/api/apiconnect"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	users         storage.UserStore
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, users storage.UserStore, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new user account and starts a session.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrMissingDisplayName):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return connect.NewResponse(&api.RegisterResponse{User: toAPIUser(user), Token: token}), nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "email", req.Msg.Email)
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}
	if err != nil {
		s.logger.Error("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{User: toAPIUser(user), Token: token}), nil
}

// GetCurrentUser returns the session's account and preferences.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{
		User:        toAPIUser(user),
		Preferences: toAPIPreferences(user.Preferences),
	}), nil
}

// GetPreferences returns the caller's stored preferences.
func (s *AuthService) GetPreferences(ctx context.Context, req *connect.Request[api.GetPreferencesRequest]) (*connect.Response[api.GetPreferencesResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetPreferencesResponse{Preferences: toAPIPreferences(user.Preferences)}), nil
}

// UpdatePreferences replaces the caller's preferences. Empty fields reset to defaults.
func (s *AuthService) UpdatePreferences(ctx context.Context, req *connect.Request[api.UpdatePreferencesRequest]) (*connect.Response[api.UpdatePreferencesResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var prefs models.UserPreferences
	if p := req.Msg.Preferences; p != nil {
		prefs = models.UserPreferences{DefaultSplitMode: p.DefaultSplitMode, SelectedPeriod: p.SelectedPeriod}
	}
	if _, err := calculator.ParseSplitMode(prefs.DefaultSplitMode); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if prefs.SelectedPeriod != "" {
		if _, err := calculator.ParsePeriod(prefs.SelectedPeriod); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	if err := s.users.UpdateUserPreferences(ctx, actor.UserID, prefs); err != nil {
		s.logger.Error("UpdatePreferences failed", "user_id", actor.UserID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Preferences updated", "user_id", actor.UserID)
	return connect.NewResponse(&api.UpdatePreferencesResponse{Preferences: toAPIPreferences(prefs)}), nil
}

func (s *AuthService) currentUser(ctx context.Context) (*models.User, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, actor.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		// Token outlived its account.
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	if err != nil {
		s.logger.Error("Failed to load user", "user_id", actor.UserID, "error", err)
		return nil, toConnectError(err)
	}
	return user, nil
}
