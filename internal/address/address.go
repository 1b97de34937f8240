package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrNotOwned        = errors.New("address does not belong to user")
)

// ValidationError reports a rejected field before any storage call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	pinCodeRe = regexp.MustCompile(`^[0-9]{6}$`)
	phoneRe   = regexp.MustCompile(`^[0-9]{10}$`)
)

type Address struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"line1"`
	Line2     string    `json:"line2"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	PinCode   string    `json:"pin_code"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces the storefront's form rules: required fields, a 6-digit
// PIN code and a 10-digit phone number.
func (a *Address) Validate() error {
	switch {
	case a.FullName == "":
		return &ValidationError{Field: "full_name", Reason: "required"}
	case a.Line1 == "":
		return &ValidationError{Field: "line1", Reason: "required"}
	case a.City == "":
		return &ValidationError{Field: "city", Reason: "required"}
	case a.State == "":
		return &ValidationError{Field: "state", Reason: "required"}
	}
	if !pinCodeRe.MatchString(a.PinCode) {
		return &ValidationError{Field: "pin_code", Reason: "must be 6 digits"}
	}
	if !phoneRe.MatchString(a.Phone) {
		return &ValidationError{Field: "phone", Reason: "must be 10 digits"}
	}
	return nil
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns addresses primary-first, then newest-first. The first
// entry is what checkout auto-selects.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Address, error) {
	query := `
		SELECT id, user_id, full_name, phone, line1, line2, city, state, pin_code, is_primary, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_primary DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*Address
	for rows.Next() {
		a := &Address{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2,
			&a.City, &a.State, &a.PinCode, &a.IsPrimary, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return addresses, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Address, error) {
	query := `
		SELECT id, user_id, full_name, phone, line1, line2, city, state, pin_code, is_primary, created_at
		FROM addresses
		WHERE id = $1
	`

	a := &Address{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.PinCode, &a.IsPrimary, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

// GetOwned fetches an address and checks it belongs to the user.
func (r *Repository) GetOwned(ctx context.Context, id int64, userID string) (*Address, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotOwned
	}
	return a, nil
}

// Create inserts the address. A user's first address becomes primary.
func (r *Repository) Create(ctx context.Context, a *Address) error {
	if err := a.Validate(); err != nil {
		return err
	}

	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&count); err != nil {
		return fmt.Errorf("count addresses: %w", err)
	}
	if count == 0 {
		a.IsPrimary = true
	}

	query := `
		INSERT INTO addresses (user_id, full_name, phone, line1, line2, city, state, pin_code, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State, a.PinCode, a.IsPrimary,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, a *Address) error {
	if err := a.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE addresses
		SET full_name = $3, phone = $4, line1 = $5, line2 = $6, city = $7, state = $8, pin_code = $9
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State, a.PinCode)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// SetPrimary marks one address primary and clears the flag on the rest.
func (r *Repository) SetPrimary(ctx context.Context, id int64, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_primary = FALSE WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear primary: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_primary = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrAddressNotFound
	}

	return tx.Commit()
}
