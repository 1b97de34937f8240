package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/address"
	"github.com/jayyveer/yarnbykrosh/internal/cart"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
	"github.com/jayyveer/yarnbykrosh/internal/pricing"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNotOwned          = errors.New("checkout session does not belong to user")
	ErrSessionClosed     = errors.New("checkout session is no longer active")
	ErrNoAddressSelected = errors.New("no address selected")
	ErrNotAtSummary      = errors.New("order can only be placed from the summary step")
	ErrAtLastStep        = errors.New("already at the last step")
)

// CartAccess is the slice of the cart service checkout needs.
type CartAccess interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// AddressAccess resolves and lists the user's saved addresses.
type AddressAccess interface {
	GetOwned(ctx context.Context, id int64, userID string) (*address.Address, error)
	ListByUser(ctx context.Context, userID string) ([]*address.Address, error)
}

type Service struct {
	sessions  Repository
	carts     CartAccess
	addresses AddressAccess
	orders    orders.Repository
	log       *slog.Logger
}

func NewService(sessions Repository, carts CartAccess, addresses AddressAccess, orderRepo orders.Repository, log *slog.Logger) *Service {
	return &Service{
		sessions:  sessions,
		carts:     carts,
		addresses: addresses,
		orders:    orderRepo,
		log:       log,
	}
}

// Begin starts checkout at the verify step. Re-entering checkout with a
// session already open resets it to verify rather than resuming mid-flow.
// An empty cart cannot enter checkout.
func (s *Service) Begin(ctx context.Context, userID string) (*Session, error) {
	userCart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(userCart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	existing, err := s.sessions.GetActiveByUser(ctx, userID)
	if err == nil {
		if existing.Step != StepVerify {
			if errStep := s.sessions.UpdateStep(ctx, existing.ID, StepVerify); errStep != nil {
				return nil, errStep
			}
			existing.Step = StepVerify
		}
		return existing, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	session := &Session{
		ID:     uuid.New(),
		UserID: userID,
		Step:   StepVerify,
		Status: StatusActive,
	}
	if errCreate := s.sessions.Create(ctx, session); errCreate != nil {
		return nil, errCreate
	}
	return session, nil
}

// Get returns the session after an ownership check.
func (s *Service) Get(ctx context.Context, userID string, sessionID uuid.UUID) (*Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotOwned
	}
	return session, nil
}

// Continue advances one step. Entering the address step auto-selects the
// user's first saved address (primary-first, then newest-first); moving from
// address to summary requires a selected address.
func (s *Service) Continue(ctx context.Context, userID string, sessionID uuid.UUID) (*Session, error) {
	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	next, ok := session.Step.Next()
	if !ok {
		return nil, ErrAtLastStep
	}

	if session.Step == StepAddress && session.AddressID == nil {
		return nil, ErrNoAddressSelected
	}

	if errStep := s.sessions.UpdateStep(ctx, session.ID, next); errStep != nil {
		return nil, errStep
	}
	session.Step = next

	if next == StepAddress && session.AddressID == nil {
		if addrID, found := s.autoSelectAddress(ctx, userID); found {
			if errAddr := s.sessions.SetAddress(ctx, session.ID, addrID); errAddr != nil {
				s.log.WarnContext(ctx, "address auto-select write failed",
					"session_id", session.ID, "address_id", addrID, "error", errAddr)
			} else {
				session.AddressID = &addrID
			}
		}
	}

	return session, nil
}

// Back steps exactly one step backward. From verify it abandons the session,
// which is the "exit to cart" action.
func (s *Service) Back(ctx context.Context, userID string, sessionID uuid.UUID) (*Session, error) {
	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	prev, ok := session.Step.Prev()
	if !ok {
		if errStatus := s.sessions.SetStatus(ctx, session.ID, StatusAbandoned); errStatus != nil {
			return nil, errStatus
		}
		session.Status = StatusAbandoned
		return session, nil
	}

	if errStep := s.sessions.UpdateStep(ctx, session.ID, prev); errStep != nil {
		return nil, errStep
	}
	session.Step = prev
	return session, nil
}

// SelectAddress records the delivery address after checking ownership.
func (s *Service) SelectAddress(ctx context.Context, userID string, sessionID uuid.UUID, addressID int64) (*Session, error) {
	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if _, errAddr := s.addresses.GetOwned(ctx, addressID, userID); errAddr != nil {
		return nil, errAddr
	}

	if errSet := s.sessions.SetAddress(ctx, session.ID, addressID); errSet != nil {
		return nil, errSet
	}
	session.AddressID = &addressID
	return session, nil
}

// Quote computes the customer-facing summary for the current cart.
func (s *Service) Quote(ctx context.Context, userID string) (*pricing.Quote, error) {
	userCart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	q := pricing.Summarize(cartItems(userCart))
	return &q, nil
}

// PlaceOrder is the terminal action, allowed only from summary. Placement is
// idempotent per session: a retried click finds the unique-session conflict
// and returns the already-created order. On any other failure the session
// stays at summary so the user can retry.
func (s *Service) PlaceOrder(ctx context.Context, userID string, sessionID uuid.UUID) (*orders.Order, error) {
	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionClosed) {
			// A completed session means a previous click won the race.
			if order, errOrder := s.orders.GetBySession(ctx, sessionID); errOrder == nil {
				return order, nil
			}
		}
		return nil, err
	}

	if session.Step != StepSummary {
		return nil, ErrNotAtSummary
	}
	if session.AddressID == nil {
		return nil, ErrNoAddressSelected
	}

	userCart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(userCart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]orders.Item, len(userCart.Lines))
	for i, line := range userCart.Lines {
		items[i] = orders.Item{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
	}

	subtotal, deliveryFee, total := pricing.OrderTotal(cartItems(userCart))

	order := &orders.Order{
		ID:                uuid.New(),
		CheckoutSessionID: session.ID,
		UserID:            userID,
		AddressID:         *session.AddressID,
		Subtotal:          subtotal,
		DeliveryFee:       deliveryFee,
		TotalAmount:       total,
		Currency:          pricing.Currency,
		PaymentMethod:     orders.PaymentMethodCOD,
		Status:            orders.OrderStatusConfirmed,
		Items:             items,
	}

	if errCreate := s.orders.Create(ctx, order); errCreate != nil {
		if errors.Is(errCreate, orders.ErrDuplicateSession) {
			return s.orders.GetBySession(ctx, session.ID)
		}
		s.log.ErrorContext(ctx, "order placement failed", "session_id", session.ID, "error", errCreate)
		return nil, errCreate
	}

	if errStatus := s.sessions.SetStatus(ctx, session.ID, StatusCompleted); errStatus != nil {
		s.log.WarnContext(ctx, "failed to complete checkout session", "session_id", session.ID, "error", errStatus)
	}

	// Best effort; the order-placed consumer clears again if this fails.
	if errClear := s.carts.Clear(ctx, userID); errClear != nil {
		s.log.WarnContext(ctx, "failed to clear cart after order", "user_id", userID, "error", errClear)
	}

	return order, nil
}

func (s *Service) activeSession(ctx context.Context, userID string, sessionID uuid.UUID) (*Session, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusActive {
		return nil, ErrSessionClosed
	}
	return session, nil
}

func (s *Service) autoSelectAddress(ctx context.Context, userID string) (int64, bool) {
	addrs, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "address auto-select failed", "error", err)
		return 0, false
	}
	if len(addrs) == 0 {
		return 0, false
	}
	return addrs[0].ID, true
}

func cartItems(c *cart.Cart) []pricing.Item {
	items := make([]pricing.Item, len(c.Lines))
	for i, line := range c.Lines {
		items[i] = pricing.Item{UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}
	return items
}
