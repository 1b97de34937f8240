package cart

import (
	"context"
	"errors"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineNotFound = errors.New("line not found in cart")
)

// Repository defines the cart persistence operations. Consumers define this
// interface, not the MongoDB implementation.
type Repository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	UpsertLine(ctx context.Context, userID string, line Line) error
	UpdateLineQuantity(ctx context.Context, userID string, productID, variantID int64, quantity int) error
	RemoveLine(ctx context.Context, userID string, productID, variantID int64) error
	DeleteCart(ctx context.Context, userID string) error
}
