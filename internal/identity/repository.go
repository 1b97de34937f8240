package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrNotAdmin     = errors.New("user is not an admin")
)

// Repository is the Postgres side of identity: users, admin grants and the
// dashboard counts procedure.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetAdmin(ctx context.Context, userID uuid.UUID) (*Admin, error)
	UpsertAdmin(ctx context.Context, admin *Admin) error
	DashboardCounts(ctx context.Context) (*DashboardCounts, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, name, password_hash)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetAdmin(ctx context.Context, userID uuid.UUID) (*Admin, error) {
	query := `SELECT user_id, email, role, created_at FROM admins WHERE user_id = $1`

	var a Admin
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&a.UserID, &a.Email, &a.Role, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotAdmin
	}
	if err != nil {
		return nil, fmt.Errorf("query admin: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) UpsertAdmin(ctx context.Context, admin *Admin) error {
	query := `INSERT INTO admins (user_id, email, role)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id) DO UPDATE SET email = $2, role = $3
	          RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		admin.UserID, admin.Email, admin.Role).Scan(&admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	query := `SELECT
	            (SELECT COUNT(*) FROM products),
	            (SELECT COUNT(*) FROM categories),
	            (SELECT COUNT(*) FROM orders),
	            (SELECT COUNT(*) FROM users)`

	var c DashboardCounts
	err := r.db.QueryRowContext(ctx, query).
		Scan(&c.Products, &c.Categories, &c.Orders, &c.Users)
	if err != nil {
		return nil, fmt.Errorf("query dashboard counts: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
