package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vilanovax/dangi-sub000/internal/models"
)

const expenseColumns = "id, project_id, title, amount, paid_by_id, date, created_by, created_at"

// CreateExpense persists a new expense and its shares.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.ProjectID, expense.Title, expense.Amount, expense.PaidByID,
		expense.Date, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}
	if err := requireActive(ctx, tx, expense.ProjectID, expenseParticipants(expense)...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func expenseParticipants(expense *models.Expense) []string {
	ids := make([]string, 0, len(expense.Shares)+1)
	ids = append(ids, expense.PaidByID)
	for _, share := range expense.Shares {
		ids = append(ids, share.ParticipantID)
	}
	return ids
}

// clearShares deletes an expense's shares and returns who held them.
func clearShares(ctx context.Context, tx *sql.Tx, expenseID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"DELETE FROM expense_shares WHERE expense_id = ? RETURNING participant_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to clear expense shares: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to clear expense shares: %w", err)
	}
	return ids, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, share := range expense.Shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, participant_id, amount) VALUES (?, ?, ?)",
			expense.ID, share.ParticipantID, share.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	).Scan(&expense.ID, &expense.ProjectID, &expense.Title, &expense.Amount, &expense.PaidByID,
		&expense.Date, &expense.CreatedBy, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	byID := map[string]*models.Expense{expense.ID: expense}
	if err := loadShares(ctx, s.db, "expense_id = ?", expenseID, byID); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an expense's fields and shares. Both the old and the
// new participants must still be active.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	involved, err := clearShares(ctx, tx, expense.ID)
	if err != nil {
		return err
	}

	var projectID, oldPayer string
	err = tx.QueryRowContext(ctx,
		"SELECT project_id, paid_by_id FROM expenses WHERE id = ?",
		expense.ID,
	).Scan(&projectID, &oldPayer)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("expense", expense.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to get expense: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE expenses SET title = ?, amount = ?, paid_by_id = ?, date = ? WHERE id = ?",
		expense.Title, expense.Amount, expense.PaidByID, expense.Date, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	involved = append(involved, oldPayer)
	involved = append(involved, expenseParticipants(expense)...)
	if err := requireActive(ctx, tx, projectID, involved...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense and its shares.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	involved, err := clearShares(ctx, tx, expenseID)
	if err != nil {
		return err
	}

	var projectID, payer string
	err = tx.QueryRowContext(ctx,
		"DELETE FROM expenses WHERE id = ? RETURNING project_id, paid_by_id",
		expenseID,
	).Scan(&projectID, &payer)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("expense", expenseID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if err := requireActive(ctx, tx, projectID, append(involved, payer)...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpensesByProject retrieves all expenses of a project, newest first.
func (s *SQLiteStore) ListExpensesByProject(ctx context.Context, projectID string) ([]*models.Expense, error) {
	return listExpenses(ctx, s.db, projectID)
}

func listExpenses(ctx context.Context, q queryer, projectID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE project_id = ? ORDER BY date DESC, created_at DESC, rowid DESC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Amount, &e.PaidByID,
			&e.Date, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return expenses, nil
	}
	if err := loadShares(ctx, q,
		"expense_id IN (SELECT id FROM expenses WHERE project_id = ?)", projectID, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadShares attaches shares matching the filter to the expenses in byID.
func loadShares(ctx context.Context, q queryer, filter string, arg any, byID map[string]*models.Expense) error {
	rows, err := q.QueryContext(ctx,
		"SELECT expense_id, participant_id, amount FROM expense_shares WHERE "+filter+" ORDER BY rowid",
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var share models.ExpenseShare
		if err := rows.Scan(&expenseID, &share.ParticipantID, &share.Amount); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Shares = append(e.Shares, share)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return nil
}
