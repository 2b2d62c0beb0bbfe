package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[int64]*catalog.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int64) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *catalog.Product) error { return nil }
func (m *mockProductRepo) Update(_ context.Context, _ *catalog.Product) error { return nil }
func (m *mockProductRepo) Delete(_ context.Context, _ int64) error            { return nil }
func (m *mockProductRepo) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return nil, nil
}

// mockCartRepo is an in-memory cart store with upsert semantics matching the
// real repository.
type mockCartRepo struct {
	carts  map[int64]*Cart
	items  map[int64]*Item
	nextID int64
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{
		carts:  make(map[int64]*Cart),
		items:  make(map[int64]*Item),
		nextID: 1,
	}
}

func (m *mockCartRepo) GetByID(_ context.Context, id int64) (*Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) GetOpenByUser(_ context.Context, userID int64) (*Cart, error) {
	for _, c := range m.carts {
		if c.UserID == userID && !c.IsOrdered {
			return c, nil
		}
	}
	return nil, ErrNoOpenCart
}

func (m *mockCartRepo) CreateForUser(_ context.Context, userID int64) (*Cart, error) {
	c := &Cart{ID: m.nextID, UserID: userID}
	m.nextID++
	m.carts[c.ID] = c
	return c, nil
}

func (m *mockCartRepo) Items(_ context.Context, cartID int64) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockCartRepo) UpsertItem(_ context.Context, cartID, productID int64, qty int) (*Item, error) {
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += qty
			stored := *it
			return &stored, nil
		}
	}
	it := &Item{ID: m.nextID, CartID: cartID, ProductID: productID, Quantity: qty}
	m.nextID++
	m.items[it.ID] = it
	stored := *it
	return &stored, nil
}

func (m *mockCartRepo) GetItem(_ context.Context, itemID int64) (*Item, error) {
	it, ok := m.items[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return it, nil
}

func (m *mockCartRepo) SetItemQuantity(_ context.Context, itemID int64, qty int) error {
	it, ok := m.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	it.Quantity = qty
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, itemID int64) error {
	if _, ok := m.items[itemID]; !ok {
		return ErrItemNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, cartID int64) error {
	for id, it := range m.items {
		if it.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

// --- Helpers ---

func newTestProduct(id int64, price string, stock int) *catalog.Product {
	return &catalog.Product{
		ID:            id,
		Title:         "Widget",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

func newService(products ...*catalog.Product) (*Service, *mockCartRepo) {
	byID := make(map[int64]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	carts := newMockCartRepo()
	return NewService(&mockProductRepo{byID: byID}, carts), carts
}

// --- Tests ---

func TestAddItem_CreatesCartLazily(t *testing.T) {
	svc, carts := newService(newTestProduct(1, "9.99", 10))

	it, err := svc.AddItem(context.Background(), 42, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Quantity)
	// The returned line carries its persisted ID so follow-up mutations can
	// address it.
	assert.NotZero(t, it.ID)

	c, err := carts.GetOpenByUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, c.ID, it.CartID)
}

func TestAddItem_DuplicateIncrementsQuantity(t *testing.T) {
	svc, carts := newService(newTestProduct(1, "9.99", 10))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 42, 1, 1)
	require.NoError(t, err)
	it, err := svc.AddItem(ctx, 42, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Quantity)

	// One row, quantity 2, never two rows.
	items, err := carts.Items(ctx, it.CartID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc, _ := newService(newTestProduct(1, "9.99", 10))

	for _, qty := range []int{0, -1} {
		_, err := svc.AddItem(context.Background(), 42, 1, qty)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc, _ := newService()

	_, err := svc.AddItem(context.Background(), 42, 99, 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddItem_CumulativeStockCheck(t *testing.T) {
	svc, _ := newService(newTestProduct(1, "9.99", 3))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 42, 1, 2)
	require.NoError(t, err)

	// 2 already in cart + 2 requested > 3 in stock.
	_, err = svc.AddItem(ctx, 42, 1, 2)
	var oos *catalog.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, int64(1), oos.ProductID)
	assert.Equal(t, 4, oos.Requested)
	assert.Equal(t, 3, oos.Available)
}

func TestSetQuantity_OrderedCartIsImmutable(t *testing.T) {
	svc, carts := newService(newTestProduct(1, "9.99", 10))
	ctx := context.Background()

	it, err := svc.AddItem(ctx, 42, 1, 1)
	require.NoError(t, err)

	items, err := carts.Items(ctx, it.CartID)
	require.NoError(t, err)
	carts.carts[it.CartID].IsOrdered = true

	err = svc.SetQuantity(ctx, 42, items[0].ID, 5)
	require.ErrorIs(t, err, ErrAlreadyOrdered)

	err = svc.RemoveItem(ctx, 42, items[0].ID)
	require.ErrorIs(t, err, ErrAlreadyOrdered)
}

func TestCartItemMutation_OtherUser(t *testing.T) {
	svc, carts := newService(newTestProduct(1, "9.99", 10))
	ctx := context.Background()

	it, err := svc.AddItem(ctx, 42, 1, 2)
	require.NoError(t, err)

	// A different user cannot touch the line.
	err = svc.SetQuantity(ctx, 7, it.ID, 99)
	require.ErrorIs(t, err, ErrNotOwner)

	err = svc.RemoveItem(ctx, 7, it.ID)
	require.ErrorIs(t, err, ErrNotOwner)

	stored, err := carts.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)

	// The owner still can.
	require.NoError(t, svc.SetQuantity(ctx, 42, it.ID, 3))
	require.NoError(t, svc.RemoveItem(ctx, 42, it.ID))
}

func TestSubtotal_UsesCurrentPrices(t *testing.T) {
	p := newTestProduct(1, "10.00", 10)
	svc, _ := newService(p, newTestProduct(2, "2.50", 10))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 42, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 42, 2, 4)
	require.NoError(t, err)

	_, sum, err := svc.Subtotal(ctx, 42)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("30.00")), "subtotal %s", sum)

	// A price change is reflected on the next read.
	p.Price = decimal.RequireFromString("20.00")
	_, sum, err = svc.Subtotal(ctx, 42)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("50.00")), "subtotal %s", sum)
}

func TestSubtotal_NoOpenCart(t *testing.T) {
	svc, _ := newService()

	_, _, err := svc.Subtotal(context.Background(), 42)
	require.ErrorIs(t, err, ErrNoOpenCart)
}
