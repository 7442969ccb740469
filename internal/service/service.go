// Package service implements the Connect handlers. Each handler resolves the
// caller once, checks permissions explicitly, and delegates the ledger math
// to the calculator package.
package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/internal/auth"
	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/middleware"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/permissions"
	"github.com/vilanovax/dangi-sub000/internal/storage"
)

var (
	errNotMember        = errors.New("not a member of this project")
	errNotOwner         = errors.New("only the project owner can do this")
	errCannotEdit       = errors.New("not allowed to edit this record")
	errRemovedReference = errors.New("record involves a removed participant")
)

// actorFrom reads the session identity placed in ctx by the auth interceptor.
func actorFrom(ctx context.Context) (permissions.Actor, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return permissions.Actor{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return permissions.Actor{UserID: userID}, nil
}

// toConnectError maps domain errors to Connect codes. Errors that are already
// Connect errors pass through unchanged.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrIntegrity), errors.Is(err, calculator.ErrUnbalanced),
		errors.Is(err, storage.ErrParticipantRemoved):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

func failedPrecondition(format string, args ...any) error {
	return connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf(format, args...))
}

func permissionDenied(err error) error {
	return connect.NewError(connect.CodePermissionDenied, err)
}

// loadProject fetches a project and checks that the actor may read it.
func loadProject(ctx context.Context, store storage.Store, actor permissions.Actor, projectID string) (*models.Project, error) {
	if projectID == "" {
		return nil, invalidArgument("project_id required")
	}
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !permissions.CanView(actor, project) {
		return nil, permissionDenied(errNotMember)
	}
	return project, nil
}

// activeParticipant returns the participant if it exists and has not been removed.
func activeParticipant(project *models.Project, participantID string) (*models.Participant, error) {
	p, ok := project.FindParticipant(participantID)
	if !ok {
		return nil, invalidArgument("participant %q is not in this project", participantID)
	}
	if !p.Active() {
		return nil, failedPrecondition("participant %q has been removed", participantID)
	}
	return p, nil
}

// touchesRemoved reports whether any of the participant ids has been removed.
// Changing such a record would move a removed participant's balance off zero.
func touchesRemoved(project *models.Project, participantIDs ...string) bool {
	for _, id := range participantIDs {
		if p, ok := project.FindParticipant(id); ok && !p.Active() {
			return true
		}
	}
	return false
}

// preferencesFor loads the actor's stored preferences. Accounts without a row
// get the defaults.
func preferencesFor(ctx context.Context, users storage.UserStore, actor permissions.Actor) (models.UserPreferences, error) {
	user, err := users.GetUserByID(ctx, actor.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.UserPreferences{}, nil
	}
	if err != nil {
		return models.UserPreferences{}, toConnectError(err)
	}
	return user.Preferences, nil
}
