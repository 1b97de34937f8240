package httpapi

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/cart"
	"github.com/jayyveer/yarnbykrosh/internal/checkout"
	"github.com/jayyveer/yarnbykrosh/internal/identity"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
	"github.com/jayyveer/yarnbykrosh/internal/pricing"
)

func testAccount() *identity.User {
	return &identity.User{
		ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Email: "asha@example.com",
		Name:  "Asha Rao",
	}
}

type mockCartService struct {
	m    sync.Mutex
	cart *cart.Cart
	err  error
	ops  []string
}

func (m *mockCartService) record(op string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.ops = append(m.ops, op)
	return m.err
}

func (m *mockCartService) Get(_ context.Context, userID string) (*cart.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &cart.Cart{UserID: userID}, nil
	}
	return m.cart, nil
}

func (m *mockCartService) Add(context.Context, string, int64, int64, int) error {
	return m.record("add")
}

func (m *mockCartService) Increase(context.Context, string, int64, int64) error {
	return m.record("increase")
}

func (m *mockCartService) Decrease(context.Context, string, int64, int64) error {
	return m.record("decrease")
}

func (m *mockCartService) Remove(context.Context, string, int64, int64) error {
	return m.record("remove")
}

func (m *mockCartService) Clear(context.Context, string) error {
	return m.record("clear")
}

type mockCheckoutService struct {
	session *checkout.Session
	order   *orders.Order
	quote   *pricing.Quote
	err     error
}

func (m *mockCheckoutService) Begin(context.Context, string) (*checkout.Session, error) {
	return m.session, m.err
}

func (m *mockCheckoutService) Get(context.Context, string, uuid.UUID) (*checkout.Session, error) {
	return m.session, m.err
}

func (m *mockCheckoutService) Continue(context.Context, string, uuid.UUID) (*checkout.Session, error) {
	return m.session, m.err
}

func (m *mockCheckoutService) Back(context.Context, string, uuid.UUID) (*checkout.Session, error) {
	return m.session, m.err
}

func (m *mockCheckoutService) SelectAddress(context.Context, string, uuid.UUID, int64) (*checkout.Session, error) {
	return m.session, m.err
}

func (m *mockCheckoutService) Quote(context.Context, string) (*pricing.Quote, error) {
	return m.quote, m.err
}

func (m *mockCheckoutService) PlaceOrder(context.Context, string, uuid.UUID) (*orders.Order, error) {
	return m.order, m.err
}

type mockAuthService struct {
	user    *identity.User
	token   string
	role    identity.AdminRole
	isAdmin bool
	err     error
}

func (m *mockAuthService) SignUp(context.Context, string, string, string) (*identity.User, string, error) {
	return m.user, m.token, m.err
}

func (m *mockAuthService) SignIn(context.Context, string, string) (*identity.User, string, error) {
	return m.user, m.token, m.err
}

func (m *mockAuthService) SignOut(context.Context, string) error {
	return m.err
}

func (m *mockAuthService) Role(context.Context, uuid.UUID) (identity.AdminRole, bool, error) {
	return m.role, m.isAdmin, m.err
}

func (m *mockAuthService) CurrentUser(_ context.Context, token string) (*identity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if token != m.token {
		return nil, identity.ErrSessionNotFound
	}
	return m.user, nil
}

type mockAdminService struct {
	counts *identity.DashboardCounts
	admin  *identity.Admin
	err    error
}

func (m *mockAdminService) Dashboard(context.Context) (*identity.DashboardCounts, error) {
	return m.counts, m.err
}

func (m *mockAdminService) MakeAdmin(context.Context, uuid.UUID, string, identity.AdminRole) (*identity.Admin, error) {
	return m.admin, m.err
}

type mockImageStore struct {
	url string
	err error
}

func (m *mockImageStore) Upload(context.Context, io.Reader) (string, error) {
	return m.url, m.err
}

func (m *mockImageStore) Remove(context.Context, string) error {
	return m.err
}

type mockOrderStore struct {
	order  *orders.Order
	err    error
	status orders.OrderStatus
}

func (m *mockOrderStore) GetByID(context.Context, uuid.UUID) (*orders.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderStore) ListByUser(context.Context, string) ([]*orders.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.order == nil {
		return nil, nil
	}
	return []*orders.Order{m.order}, nil
}

func (m *mockOrderStore) UpdateStatus(_ context.Context, _ uuid.UUID, status orders.OrderStatus) error {
	if m.err != nil {
		return m.err
	}
	m.status = status
	if m.order != nil {
		m.order.Status = status
	}
	return nil
}
