// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx so reads can run inside a snapshot.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// notFound wraps storage.ErrNotFound with the kind and id of the missing row.
func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", storage.ErrNotFound, kind, id)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateProject persists a new project and its participants in one transaction.
func (s *SQLiteStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	if project.CreatedAt == 0 {
		project.CreatedAt = time.Now().Unix()
	}
	if project.Name == "" {
		project.Name = generateName(project)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO projects (id, name, template, currency, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		project.ID, project.Name, string(project.Template), project.Currency, project.OwnerID, project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	for i := range project.Participants {
		p := &project.Participants[i]
		p.ProjectID = project.ID
		if err := insertParticipant(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertParticipant(ctx context.Context, tx *sql.Tx, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Weight == 0 {
		p.Weight = 1
	}
	if p.Role == "" {
		p.Role = models.RoleMember
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO participants (id, project_id, name, weight, role, user_id, removed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.ProjectID, p.Name, p.Weight, string(p.Role), nullString(p.UserID), p.RemovedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID, including participants and charge rule.
func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	return getProject(ctx, s.db, projectID)
}

func getProject(ctx context.Context, q queryer, projectID string) (*models.Project, error) {
	project := &models.Project{}
	var template string
	err := q.QueryRowContext(ctx,
		"SELECT id, name, template, currency, owner_id, created_at FROM projects WHERE id = ?",
		projectID,
	).Scan(&project.ID, &project.Name, &template, &project.Currency, &project.OwnerID, &project.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	project.Template = models.Template(template)

	rows, err := q.QueryContext(ctx,
		`SELECT id, project_id, name, weight, role, user_id, removed_at
		 FROM participants WHERE project_id = ? ORDER BY rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		var role string
		var userID sql.NullString
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Weight, &role, &userID, &p.RemovedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Role = models.Role(role)
		p.UserID = userID.String
		project.Participants = append(project.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	rule := &models.ChargeRule{ProjectID: projectID}
	err = q.QueryRowContext(ctx,
		"SELECT amount_per_unit, start_period, updated_at FROM charge_rules WHERE project_id = ?",
		projectID,
	).Scan(&rule.AmountPerUnit, &rule.StartPeriod, &rule.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get charge rule: %w", err)
	default:
		project.ChargeRule = rule
	}

	return project, nil
}

// ListProjectsForUser retrieves every project the user owns or is an active participant of.
func (s *SQLiteStore) ListProjectsForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM projects WHERE owner_id = ?
		 UNION
		 SELECT project_id FROM participants WHERE user_id = ? AND removed_at = 0`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	projects := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	// Newest first
	slices.SortStableFunc(projects, func(a, b *models.Project) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	return projects, nil
}

// UpdateProject updates a project's name and currency.
func (s *SQLiteStore) UpdateProject(ctx context.Context, project *models.Project) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE projects SET name = ?, currency = ? WHERE id = ?",
		project.Name, project.Currency, project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return expectRow(res, "project", project.ID)
}

// DeleteProject removes a project and, by cascade, its whole ledger.
func (s *SQLiteStore) DeleteProject(ctx context.Context, projectID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Shares and settlements reference participants without cascade, so clear
	// the ledger before the participants go.
	stmts := []string{
		"DELETE FROM settlements WHERE project_id = ?",
		"DELETE FROM charge_payments WHERE project_id = ?",
		"DELETE FROM expenses WHERE project_id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, projectID); err != nil {
			return fmt.Errorf("failed to clear project ledger: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if err := expectRow(res, "project", projectID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddParticipant adds a participant to an existing project.
func (s *SQLiteStore) AddParticipant(ctx context.Context, participant *models.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ?", participant.ProjectID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("project", participant.ProjectID)
	}
	if err != nil {
		return fmt.Errorf("failed to check project existence: %w", err)
	}

	if err := insertParticipant(ctx, tx, participant); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveParticipant marks a participant as removed. The row stays so that old
// expenses and settlements keep resolving.
//
// The update runs first so the transaction holds the write lock while check
// reads the ledger; no other write can land between the check and the commit.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, projectID, participantID string, at int64, check storage.RemovalCheck) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE participants SET removed_at = ? WHERE id = ? AND project_id = ? AND removed_at = 0",
		at, participantID, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if err := expectRow(res, "participant", participantID); err != nil {
		return err
	}

	if check != nil {
		snap, err := readSnapshot(ctx, tx, projectID)
		if err != nil {
			return err
		}
		// Show the participant as it was before this transaction.
		if p, ok := snap.Project.FindParticipant(participantID); ok {
			p.RemovedAt = 0
		}
		if err := check(snap); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// generateName creates a default project name from its participants.
func generateName(project *models.Project) string {
	names := make([]string, 0, len(project.Participants))
	for _, p := range project.Participants {
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return fmt.Sprintf("Project - %s", time.Unix(project.CreatedAt, 0).Format("Jan 2, 2006"))
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
