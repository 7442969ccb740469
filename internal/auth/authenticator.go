// Package auth verifies who is calling: account credentials and session tokens.
package auth

import (
	"context"

	"github.com/vilanovax/dangi-sub000/internal/models"
)

// Authenticator turns credentials into an account. Services depend on this
// rather than on a concrete credential scheme.
type Authenticator interface {
	// Register creates an account. The credential format is implementation specific.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account whose credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials the implementation would never accept.
	ValidateCredential(credential string) error
}
