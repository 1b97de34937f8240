package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/address"
	"github.com/jayyveer/yarnbykrosh/internal/cart"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
)

// mockSessionRepo implements Repository in memory.
type mockSessionRepo struct {
	m             sync.Mutex
	sessions      map[uuid.UUID]*Session
	err           error
	setAddressErr error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, session *Session) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) GetActiveByUser(_ context.Context, userID string) (*Session, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.Status == StatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *mockSessionRepo) UpdateStep(_ context.Context, id uuid.UUID, step Step) error {
	m.m.Lock()
	defer m.m.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Step = step
	return nil
}

func (m *mockSessionRepo) SetAddress(_ context.Context, id uuid.UUID, addressID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.setAddressErr != nil {
		return m.setAddressErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.AddressID = &addressID
	return nil
}

func (m *mockSessionRepo) SetStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.m.Lock()
	defer m.m.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Status = status
	return nil
}

// mockCartAccess serves a fixed cart and records Clear calls.
type mockCartAccess struct {
	m       sync.Mutex
	cart    *cart.Cart
	err     error
	cleared int
}

func (m *mockCartAccess) Get(_ context.Context, userID string) (*cart.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &cart.Cart{UserID: userID}, nil
	}
	return m.cart, nil
}

func (m *mockCartAccess) Clear(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cleared++
	m.cart = nil
	return nil
}

// mockAddressAccess owns a list of addresses for one user.
type mockAddressAccess struct {
	addresses []*address.Address
	err       error
}

func (m *mockAddressAccess) GetOwned(_ context.Context, id int64, userID string) (*address.Address, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.addresses {
		if a.ID == id {
			if a.UserID != userID {
				return nil, address.ErrNotOwned
			}
			return a, nil
		}
	}
	return nil, address.ErrAddressNotFound
}

func (m *mockAddressAccess) ListByUser(_ context.Context, userID string) ([]*address.Address, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*address.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// mockOrderRepo stores orders keyed by checkout session.
type mockOrderRepo struct {
	m         sync.Mutex
	bySession map[uuid.UUID]*orders.Order
	createErr error
	creates   int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{bySession: make(map[uuid.UUID]*orders.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *orders.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.bySession[order.CheckoutSessionID]; exists {
		return orders.ErrDuplicateSession
	}
	m.bySession[order.CheckoutSessionID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*orders.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.bySession {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (m *mockOrderRepo) GetBySession(_ context.Context, sessionID uuid.UUID) (*orders.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.bySession[sessionID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]*orders.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*orders.Order
	for _, o := range m.bySession {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status orders.OrderStatus) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.bySession {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return orders.ErrOrderNotFound
}

func (m *mockOrderRepo) GetUnprocessedEvents(context.Context, int) ([]*orders.OutboxEvent, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkEventAsProcessed(context.Context, int64) error {
	return nil
}
