package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m    sync.RWMutex
	cart *Cart
	err  error
}

func (m *mockRepository) GetCart(context.Context, string) (*Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockRepository) UpsertLine(_ context.Context, userID string, line Line) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		m.cart = &Cart{UserID: userID}
	}
	for i := range m.cart.Lines {
		if m.cart.Lines[i].ProductID == line.ProductID && m.cart.Lines[i].VariantID == line.VariantID {
			m.cart.Lines[i] = line
			return nil
		}
	}
	m.cart.Lines = append(m.cart.Lines, line)
	return nil
}

func (m *mockRepository) UpdateLineQuantity(_ context.Context, _ string, productID, variantID int64, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.cart.Lines {
		if m.cart.Lines[i].ProductID == productID && m.cart.Lines[i].VariantID == variantID {
			m.cart.Lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *mockRepository) RemoveLine(_ context.Context, _ string, productID, variantID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, line := range m.cart.Lines {
		if line.ProductID == productID && line.VariantID == variantID {
			m.cart.Lines = append(m.cart.Lines[:i], m.cart.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return ErrCartNotFound
	}
	m.cart = nil
	return nil
}

type mockCache struct {
	m    sync.RWMutex
	cart *Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return nil
}

type mockProductSource struct {
	stock int
	err   error
}

func (m *mockProductSource) VariantSnapshot(_ context.Context, productID, variantID int64) (Line, error) {
	if m.err != nil {
		return Line{}, m.err
	}
	return Line{
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: fmt.Sprintf("product-%d", productID),
		UnitPrice:   100,
		Stock:       m.stock,
	}, nil
}

func newTestService(repo *mockRepository, cache *mockCache, products *mockProductSource) *Service {
	return NewService(repo, cache, products, slog.Default())
}

func TestGet_EmptyCartForNewUser(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockProductSource{stock: 10})

	cart, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.Empty(t, cart.Lines)
}

func TestAdd_UpsertKeepsOneLine(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "user-1", 7, 3, 1))
	require.NoError(t, svc.Add(ctx, "user-1", 7, 3, 1))

	assert.Len(t, repo.cart.Lines, 1)
	assert.Equal(t, 1, repo.cart.Lines[0].Quantity)
}

func TestAdd_DistinctVariantsMakeDistinctLines(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "user-1", 7, 3, 1))
	require.NoError(t, svc.Add(ctx, "user-1", 7, 4, 2))

	assert.Len(t, repo.cart.Lines, 2)
}

func TestAdd_ClampsToCap(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})

	require.NoError(t, svc.Add(context.Background(), "user-1", 7, 3, 9))
	assert.Equal(t, MaxQuantityPerLine, repo.cart.Lines[0].Quantity)
}

func TestAdd_ClampsToStock(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 2})

	require.NoError(t, svc.Add(context.Background(), "user-1", 7, 3, 4))
	assert.Equal(t, 2, repo.cart.Lines[0].Quantity)
}

func TestAdd_OutOfStock(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockProductSource{stock: 0})

	err := svc.Add(context.Background(), "user-1", 7, 3, 1)
	assert.ErrorIs(t, err, ErrVariantOutOfStock)
}

func TestAdd_RejectsZeroQuantity(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockProductSource{stock: 5})

	err := svc.Add(context.Background(), "user-1", 7, 3, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestIncrease_StopsAtCap(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID: "user-1",
		Lines:  []Line{{ProductID: 7, VariantID: 3, Quantity: 5, Stock: 10}},
	}}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})

	require.NoError(t, svc.Increase(context.Background(), "user-1", 7, 3))
	assert.Equal(t, 5, repo.cart.Lines[0].Quantity) // no-op at the cap
}

func TestIncrease_StopsAtStock(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID: "user-1",
		Lines:  []Line{{ProductID: 7, VariantID: 3, Quantity: 2, Stock: 10}},
	}}
	// Current stock dropped below the cart's snapshot.
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 2})

	require.NoError(t, svc.Increase(context.Background(), "user-1", 7, 3))
	assert.Equal(t, 2, repo.cart.Lines[0].Quantity)
}

func TestIncrease_BelowCap(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID: "user-1",
		Lines:  []Line{{ProductID: 7, VariantID: 3, Quantity: 2, Stock: 10}},
	}}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})

	require.NoError(t, svc.Increase(context.Background(), "user-1", 7, 3))
	assert.Equal(t, 3, repo.cart.Lines[0].Quantity)
}

func TestDecrease_AtOneRemovesLine(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID: "user-1",
		Lines:  []Line{{ProductID: 7, VariantID: 3, Quantity: 1, Stock: 10}},
	}}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})

	require.NoError(t, svc.Decrease(context.Background(), "user-1", 7, 3))
	assert.Empty(t, repo.cart.Lines)
}

func TestDecrease_AboveOne(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID: "user-1",
		Lines:  []Line{{ProductID: 7, VariantID: 3, Quantity: 3, Stock: 10}},
	}}
	svc := newTestService(repo, &mockCache{}, &mockProductSource{stock: 10})

	require.NoError(t, svc.Decrease(context.Background(), "user-1", 7, 3))
	assert.Equal(t, 2, repo.cart.Lines[0].Quantity)
}

func TestClear_MissingCartIsNotAnError(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockProductSource{stock: 10})

	assert.NoError(t, svc.Clear(context.Background(), "user-1"))
}

func TestGet_CacheHitSkipsRepository(t *testing.T) {
	cached := &Cart{UserID: "user-1", Lines: []Line{{ProductID: 1, VariantID: 1, Quantity: 2}}}
	repo := &mockRepository{err: fmt.Errorf("repo should not be called")}
	svc := newTestService(repo, &mockCache{cart: cached}, &mockProductSource{stock: 10})

	cart, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestGet_PopulatesCacheAfterMiss(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID:    "user-1",
		Lines:     []Line{{ProductID: 1, VariantID: 1, Quantity: 2}},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}
	cache := &mockCache{}
	svc := newTestService(repo, cache, &mockProductSource{stock: 10})

	cart, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)

	// The cache fill is asynchronous.
	assert.Eventually(t, func() bool {
		cache.m.RLock()
		defer cache.m.RUnlock()
		return cache.cart != nil
	}, time.Second, 10*time.Millisecond)
}

func TestMutation_InvalidatesCache(t *testing.T) {
	repo := &mockRepository{cart: &Cart{
		UserID: "user-1",
		Lines:  []Line{{ProductID: 7, VariantID: 3, Quantity: 2, Stock: 10}},
	}}
	cache := &mockCache{cart: &Cart{UserID: "user-1"}}
	svc := newTestService(repo, cache, &mockProductSource{stock: 10})

	require.NoError(t, svc.Increase(context.Background(), "user-1", 7, 3))

	cache.m.RLock()
	defer cache.m.RUnlock()
	assert.Nil(t, cache.cart)
}
