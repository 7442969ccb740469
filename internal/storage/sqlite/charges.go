package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vilanovax/dangi-sub000/internal/models"
)

// SetChargeRule creates or replaces the charge rule of a project.
func (s *SQLiteStore) SetChargeRule(ctx context.Context, rule *models.ChargeRule) error {
	if rule.UpdatedAt == 0 {
		rule.UpdatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO charge_rules (project_id, amount_per_unit, start_period, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET
			amount_per_unit = excluded.amount_per_unit,
			start_period = excluded.start_period,
			updated_at = excluded.updated_at`,
		rule.ProjectID, rule.AmountPerUnit, rule.StartPeriod, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set charge rule: %w", err)
	}
	return nil
}

// CreateChargePayment records a payment toward one month's due.
func (s *SQLiteStore) CreateChargePayment(ctx context.Context, payment *models.ChargePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO charge_payments (id, project_id, participant_id, period, amount, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.ProjectID, payment.ParticipantID, payment.Period,
		payment.Amount, payment.CreatedAt, payment.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert charge payment: %w", err)
	}
	if err := requireActive(ctx, tx, payment.ProjectID, payment.ParticipantID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func listChargePayments(ctx context.Context, q queryer, projectID string) ([]*models.ChargePayment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, project_id, participant_id, period, amount, created_at, created_by
		 FROM charge_payments WHERE project_id = ? ORDER BY period, rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list charge payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.ChargePayment
	for rows.Next() {
		p := &models.ChargePayment{}
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.ParticipantID, &p.Period,
			&p.Amount, &p.CreatedAt, &p.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan charge payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate charge payments: %w", err)
	}
	return payments, nil
}
