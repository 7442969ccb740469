// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/vilanovax/dangi-sub000/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that finds no row.
	ErrNotFound = errors.New("not found")

	// ErrParticipantRemoved is wrapped by writes that would change the ledger
	// of a removed participant.
	ErrParticipantRemoved = errors.New("participant has been removed")
)

// RemovalCheck vets a participant removal against the ledger as it stood just
// before it, read inside the removing transaction.
type RemovalCheck func(snap *Snapshot) error

// Snapshot is a consistent view of everything a project's balances depend on.
type Snapshot struct {
	Project        *models.Project
	Expenses       []*models.Expense
	Settlements    []*models.Settlement
	ChargePayments []*models.ChargePayment
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserPreferences(ctx context.Context, userID string, prefs models.UserPreferences) error
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore

	// CreateProject persists a project with its initial participants.
	// Missing IDs and timestamps are populated by the store.
	CreateProject(ctx context.Context, project *models.Project) error

	// GetProject returns a project with its participants and charge rule.
	GetProject(ctx context.Context, projectID string) (*models.Project, error)

	// ListProjectsForUser returns projects the user owns or participates in.
	ListProjectsForUser(ctx context.Context, userID string) ([]*models.Project, error)

	// UpdateProject updates a project's name and currency.
	UpdateProject(ctx context.Context, project *models.Project) error

	DeleteProject(ctx context.Context, projectID string) error

	AddParticipant(ctx context.Context, participant *models.Participant) error

	// RemoveParticipant soft-removes a participant at the given Unix time. A
	// non-nil error from check aborts the removal and is returned as is.
	RemoveParticipant(ctx context.Context, projectID, participantID string, at int64, check RemovalCheck) error

	SetChargeRule(ctx context.Context, rule *models.ChargeRule) error

	// The ledger writes below fail with ErrParticipantRemoved when they
	// involve a removed participant, checked in the writing transaction.

	CreateChargePayment(ctx context.Context, payment *models.ChargePayment) error

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error
	ListExpensesByProject(ctx context.Context, projectID string) ([]*models.Expense, error)

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ListSettlementsByProject(ctx context.Context, projectID string) ([]*models.Settlement, error)
	DeleteSettlement(ctx context.Context, settlementID string) error

	// LedgerSnapshot reads a project and all of its ledger records inside one
	// read transaction, so no concurrent write is partially visible.
	LedgerSnapshot(ctx context.Context, projectID string) (*Snapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
