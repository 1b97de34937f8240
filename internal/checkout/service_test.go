package checkout

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayyveer/yarnbykrosh/internal/address"
	"github.com/jayyveer/yarnbykrosh/internal/cart"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
)

const testUser = "user-1"

func filledCart() *cart.Cart {
	return &cart.Cart{
		UserID: testUser,
		Lines: []cart.Line{
			{ProductID: 1, VariantID: 4, ProductName: "Chunky Yarn", UnitPrice: 100, Quantity: 2},
			{ProductID: 2, VariantID: 9, ProductName: "Crochet Hook", UnitPrice: 50, Quantity: 1},
		},
	}
}

func savedAddress(id int64) *address.Address {
	return &address.Address{
		ID:       id,
		UserID:   testUser,
		FullName: "Asha Rao",
		Phone:    "9876543210",
		Line1:    "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		PinCode:  "560001",
	}
}

type fixture struct {
	svc       *Service
	sessions  *mockSessionRepo
	carts     *mockCartAccess
	addresses *mockAddressAccess
	orders    *mockOrderRepo
}

func newFixture(c *cart.Cart, addrs ...*address.Address) *fixture {
	f := &fixture{
		sessions:  newMockSessionRepo(),
		carts:     &mockCartAccess{cart: c},
		addresses: &mockAddressAccess{addresses: addrs},
		orders:    newMockOrderRepo(),
	}
	f.svc = NewService(f.sessions, f.carts, f.addresses, f.orders, slog.Default())
	return f
}

// advanceToSummary walks a fresh session through verify and address.
func advanceToSummary(t *testing.T, f *fixture) *Session {
	t.Helper()
	ctx := context.Background()

	session, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)

	session, err = f.svc.Continue(ctx, testUser, session.ID)
	require.NoError(t, err)
	require.Equal(t, StepAddress, session.Step)
	require.NotNil(t, session.AddressID)

	session, err = f.svc.Continue(ctx, testUser, session.ID)
	require.NoError(t, err)
	require.Equal(t, StepSummary, session.Step)
	return session
}

func TestBegin_StartsAtVerify(t *testing.T) {
	f := newFixture(filledCart())

	session, err := f.svc.Begin(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, StepVerify, session.Step)
	assert.Equal(t, StatusActive, session.Status)
}

func TestBegin_EmptyCartRejected(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Begin(context.Background(), testUser)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBegin_ReentryResetsToVerify(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	ctx := context.Background()

	first, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)
	_, err = f.svc.Continue(ctx, testUser, first.ID)
	require.NoError(t, err)

	again, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, StepVerify, again.Step)
}

func TestContinue_VerifyToAddress_AutoSelectsFirstAddress(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10), savedAddress(11))

	session, err := f.svc.Begin(context.Background(), testUser)
	require.NoError(t, err)

	session, err = f.svc.Continue(context.Background(), testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StepAddress, session.Step)
	require.NotNil(t, session.AddressID)
	assert.Equal(t, int64(10), *session.AddressID)
}

func TestContinue_AutoSelectWriteFailureLeavesAddressUnset(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	f.sessions.setAddressErr = errors.New("write failed")
	ctx := context.Background()

	session, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)

	// The step still advances; the unsaved auto-selection must not be
	// reported back as if it were stored.
	session, err = f.svc.Continue(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StepAddress, session.Step)
	assert.Nil(t, session.AddressID)

	_, err = f.svc.Continue(ctx, testUser, session.ID)
	assert.ErrorIs(t, err, ErrNoAddressSelected)
}

func TestContinue_AddressToSummary_RequiresAddress(t *testing.T) {
	// No saved addresses: auto-select finds nothing.
	f := newFixture(filledCart())
	ctx := context.Background()

	session, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)

	session, err = f.svc.Continue(ctx, testUser, session.ID)
	require.NoError(t, err)
	require.Equal(t, StepAddress, session.Step)
	require.Nil(t, session.AddressID)

	_, err = f.svc.Continue(ctx, testUser, session.ID)
	assert.ErrorIs(t, err, ErrNoAddressSelected)
}

func TestContinue_PastSummary(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	session := advanceToSummary(t, f)

	_, err := f.svc.Continue(context.Background(), testUser, session.ID)
	assert.ErrorIs(t, err, ErrAtLastStep)
}

func TestBack_NeverSkipsAStep(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	session := advanceToSummary(t, f)
	ctx := context.Background()

	session, err := f.svc.Back(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StepAddress, session.Step)

	session, err = f.svc.Back(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StepVerify, session.Step)
}

func TestBack_FromVerifyAbandonsSession(t *testing.T) {
	f := newFixture(filledCart())
	ctx := context.Background()

	session, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)

	session, err = f.svc.Back(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAbandoned, session.Status)

	// Once abandoned the session is closed to further actions.
	_, err = f.svc.Continue(ctx, testUser, session.ID)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSelectAddress_OwnershipEnforced(t *testing.T) {
	foreign := savedAddress(42)
	foreign.UserID = "someone-else"
	f := newFixture(filledCart(), savedAddress(10), foreign)
	ctx := context.Background()

	session, err := f.svc.Begin(ctx, testUser)
	require.NoError(t, err)

	_, err = f.svc.SelectAddress(ctx, testUser, session.ID, 42)
	assert.ErrorIs(t, err, address.ErrNotOwned)

	session, err = f.svc.SelectAddress(ctx, testUser, session.ID, 10)
	require.NoError(t, err)
	require.NotNil(t, session.AddressID)
	assert.Equal(t, int64(10), *session.AddressID)
}

func TestGet_WrongUser(t *testing.T) {
	f := newFixture(filledCart())

	session, err := f.svc.Begin(context.Background(), testUser)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), "intruder", session.ID)
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestQuote(t *testing.T) {
	f := newFixture(filledCart())

	q, err := f.svc.Quote(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 250.0, q.Subtotal)
	assert.Equal(t, 80.0, q.DeliveryFee)
	assert.Equal(t, 332.5, q.Total)
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	session := advanceToSummary(t, f)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, order.CheckoutSessionID)
	assert.Equal(t, int64(10), order.AddressID)
	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, 330.0, order.TotalAmount) // subtotal + delivery fee, no display tax
	assert.Equal(t, orders.PaymentMethodCOD, order.PaymentMethod)
	assert.Len(t, order.Items, 2)

	// Session completed and cart cleared.
	stored, err := f.sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, 1, f.carts.cleared)
}

func TestPlaceOrder_NotAtSummary(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))

	session, err := f.svc.Begin(context.Background(), testUser)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), testUser, session.ID)
	assert.ErrorIs(t, err, ErrNotAtSummary)
}

func TestPlaceOrder_RetryAfterFailureStaysAtSummary(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	session := advanceToSummary(t, f)
	ctx := context.Background()

	f.orders.createErr = assert.AnError
	_, err := f.svc.PlaceOrder(ctx, testUser, session.ID)
	require.Error(t, err)

	stored, err := f.sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StepSummary, stored.Step)
	assert.Equal(t, StatusActive, stored.Status)

	// Clearing the fault lets the same session retry to success.
	f.orders.createErr = nil
	order, err := f.svc.PlaceOrder(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, order.CheckoutSessionID)
}

func TestPlaceOrder_DuplicateSubmitReturnsExistingOrder(t *testing.T) {
	f := newFixture(filledCart(), savedAddress(10))
	session := advanceToSummary(t, f)
	ctx := context.Background()

	first, err := f.svc.PlaceOrder(ctx, testUser, session.ID)
	require.NoError(t, err)

	// A second click on a now-completed session must not create another order.
	second, err := f.svc.PlaceOrder(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.orders.bySession, 1)
}
