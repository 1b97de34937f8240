package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// Repository persists checkout sessions.
type Repository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetActiveByUser(ctx context.Context, userID string) (*Session, error)
	UpdateStep(ctx context.Context, id uuid.UUID, step Step) error
	SetAddress(ctx context.Context, id uuid.UUID, addressID int64) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *Session) error {
	query := `INSERT INTO checkout_sessions (id, user_id, step, status, address_id)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		session.ID, session.UserID, session.Step, session.Status, session.AddressID,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, user_id, step, status, address_id, created_at, updated_at
	          FROM checkout_sessions WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetActiveByUser(ctx context.Context, userID string) (*Session, error) {
	query := `SELECT id, user_id, step, status, address_id, created_at, updated_at
	          FROM checkout_sessions WHERE user_id = $1 AND status = 'active'`
	return r.scan(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) UpdateStep(ctx context.Context, id uuid.UUID, step Step) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET step = $2, updated_at = NOW() WHERE id = $1`, id, step)
}

func (r *PostgresRepository) SetAddress(ctx context.Context, id uuid.UUID, addressID int64) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET address_id = $2, updated_at = NOW() WHERE id = $1`, id, addressID)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return r.exec(ctx,
		`UPDATE checkout_sessions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update checkout session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PostgresRepository) scan(row *sql.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Step, &s.Status, &s.AddressID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan checkout session: %w", err)
	}
	return &s, nil
}
