package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateSession = errors.New("order for checkout session already exists")
)

// OutboxEvent is one unpublished row of the transactional outbox.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
}

// Repository defines order persistence. Create writes the order header, its
// items and the order-placed outbox event in a single transaction.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
