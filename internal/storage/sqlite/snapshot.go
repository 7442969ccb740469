package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vilanovax/dangi-sub000/internal/storage"
)

// LedgerSnapshot reads a project and its ledger inside one read-only transaction.
func (s *SQLiteStore) LedgerSnapshot(ctx context.Context, projectID string) (*storage.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	return readSnapshot(ctx, tx, projectID)
}

func readSnapshot(ctx context.Context, q queryer, projectID string) (*storage.Snapshot, error) {
	project, err := getProject(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	expenses, err := listExpenses(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	settlements, err := listSettlements(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	payments, err := listChargePayments(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	return &storage.Snapshot{
		Project:        project,
		Expenses:       expenses,
		Settlements:    settlements,
		ChargePayments: payments,
	}, nil
}

// requireActive fails with storage.ErrParticipantRemoved unless every id is an
// active participant of the project. Writers call it after their first write,
// once they hold the database write lock, so a concurrent removal is either
// fully visible or has not started.
func requireActive(ctx context.Context, tx *sql.Tx, projectID string, ids ...string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		var removedAt int64
		err := tx.QueryRowContext(ctx,
			"SELECT removed_at FROM participants WHERE id = ? AND project_id = ?",
			id, projectID,
		).Scan(&removedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("participant", id)
		}
		if err != nil {
			return fmt.Errorf("failed to check participant: %w", err)
		}
		if removedAt != 0 {
			return fmt.Errorf("%w: %s", storage.ErrParticipantRemoved, id)
		}
	}
	return nil
}
