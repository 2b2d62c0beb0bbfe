package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
	"github.com/mkuznetsov/storefront/internal/domain/catalog"
	"github.com/mkuznetsov/storefront/internal/domain/identity"
)

// --- Mock implementations ---

type mockCartRepo struct {
	carts map[int64]*cart.Cart
	items map[int64][]cart.Item
}

func (m *mockCartRepo) GetByID(_ context.Context, id int64) (*cart.Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) GetOpenByUser(_ context.Context, _ int64) (*cart.Cart, error) {
	return nil, cart.ErrNoOpenCart
}

func (m *mockCartRepo) CreateForUser(_ context.Context, _ int64) (*cart.Cart, error) {
	return nil, nil
}

func (m *mockCartRepo) Items(_ context.Context, cartID int64) ([]cart.Item, error) {
	return m.items[cartID], nil
}

func (m *mockCartRepo) UpsertItem(_ context.Context, _, _ int64, _ int) (*cart.Item, error) {
	return nil, nil
}
func (m *mockCartRepo) GetItem(_ context.Context, _ int64) (*cart.Item, error) {
	return nil, cart.ErrItemNotFound
}
func (m *mockCartRepo) SetItemQuantity(_ context.Context, _ int64, _ int) error { return nil }
func (m *mockCartRepo) RemoveItem(_ context.Context, _ int64) error             { return nil }
func (m *mockCartRepo) Clear(_ context.Context, _ int64) error                  { return nil }

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

type mockValidator struct {
	final    decimal.Decimal
	discount decimal.Decimal
	err      error
}

func (m *mockValidator) Validate(_ context.Context, _ string, _ decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	return m.final, m.discount, m.err
}

// mockOrderRepo is an in-memory order store.
type mockOrderRepo struct {
	orders    map[int64]*Order
	payments  map[int64]*Payment
	shipments map[int64]*Shipment
	invoices  map[int64]*Invoice
	nextID    int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:    make(map[int64]*Order),
		payments:  make(map[int64]*Payment),
		shipments: make(map[int64]*Shipment),
		invoices:  make(map[int64]*Invoice),
		nextID:    1,
	}
}

func (m *mockOrderRepo) CreateFromCart(_ context.Context, o *Order, _ int64) error {
	o.ID = m.nextID
	m.nextID++
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID int64) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) SetPaymentStatus(_ context.Context, id int64, status PaymentStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (m *mockOrderRepo) CreatePayment(_ context.Context, p *Payment) error {
	p.ID = m.nextID
	m.nextID++
	m.payments[p.OrderID] = p
	return nil
}

func (m *mockOrderRepo) GetPayment(_ context.Context, orderID int64) (*Payment, error) {
	p, ok := m.payments[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockOrderRepo) SetPaymentRecordStatus(_ context.Context, orderID int64, status PaymentStatus) error {
	p, ok := m.payments[orderID]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockOrderRepo) CreateShipment(_ context.Context, sh *Shipment) error {
	sh.ID = m.nextID
	m.nextID++
	m.shipments[sh.OrderID] = sh
	return nil
}

func (m *mockOrderRepo) GetShipment(_ context.Context, orderID int64) (*Shipment, error) {
	sh, ok := m.shipments[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return sh, nil
}

func (m *mockOrderRepo) UpdateShipment(_ context.Context, sh *Shipment) error {
	m.shipments[sh.OrderID] = sh
	return nil
}

func (m *mockOrderRepo) CreateInvoice(_ context.Context, inv *Invoice) error {
	inv.ID = m.nextID
	m.nextID++
	m.invoices[inv.OrderID] = inv
	return nil
}

func (m *mockOrderRepo) GetInvoice(_ context.Context, orderID int64) (*Invoice, error) {
	inv, ok := m.invoices[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}

// --- Helpers ---

var (
	customer = identity.Identity{UserID: 42, Role: identity.RoleCustomer}
	stranger = identity.Identity{UserID: 7, Role: identity.RoleCustomer}
	admin    = identity.Identity{UserID: 1, Role: identity.RoleAdmin}
	superOp  = identity.Identity{UserID: 2, Role: identity.RoleSuperAdmin}
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc    *Service
	carts  *mockCartRepo
	orders *mockOrderRepo
}

func newFixture(t *testing.T, validator *mockValidator) *fixture {
	t.Helper()
	carts := &mockCartRepo{
		carts: map[int64]*cart.Cart{
			1: {ID: 1, UserID: customer.UserID},
		},
		items: map[int64][]cart.Item{
			1: {
				{ID: 10, CartID: 1, ProductID: 100, Quantity: 2},
				{ID: 11, CartID: 1, ProductID: 101, Quantity: 1},
			},
		},
	}
	products := &mockProductRepo{byID: map[int64]*catalog.Product{
		100: {ID: 100, Title: "Widget", Price: d("10.00"), StockQuantity: 5},
		101: {ID: 101, Title: "Gadget", Price: d("20.00"), StockQuantity: 5},
	}}
	orders := newMockOrderRepo()
	if validator == nil {
		validator = &mockValidator{}
	}
	svc := NewService(carts, products, validator, orders, d("0.2"))
	return &fixture{svc: svc, carts: carts, orders: orders}
}

func (f *fixture) checkout(t *testing.T) *Order {
	t.Helper()
	o, err := f.svc.Checkout(context.Background(), customer, CheckoutRequest{
		CartID:          1,
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)
	return o
}

// --- Tests ---

func TestCheckout(t *testing.T) {
	f := newFixture(t, nil)

	o := f.checkout(t)

	// Total is the sum of quantity times snapshot price: 2x10 + 1x20.
	assert.True(t, o.TotalAmount.Equal(d("40.00")), "total %s", o.TotalAmount)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].PriceAtPurchase.Equal(d("10.00")))
	assert.True(t, o.Items[1].PriceAtPurchase.Equal(d("20.00")))
}

func TestCheckout_WithCoupon(t *testing.T) {
	f := newFixture(t, &mockValidator{final: d("30.00"), discount: d("10.00")})

	o, err := f.svc.Checkout(context.Background(), customer, CheckoutRequest{
		CartID:          1,
		ShippingAddress: "1 Main St",
		CouponCode:      "SAVE10",
	})
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(d("30.00")), "total %s", o.TotalAmount)
	assert.Equal(t, "SAVE10", o.CouponCode)
}

func TestCheckout_NotOwner(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Checkout(context.Background(), stranger, CheckoutRequest{CartID: 1})
	require.ErrorIs(t, err, identity.ErrForbidden)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t, nil)
	f.carts.items[1] = nil

	_, err := f.svc.Checkout(context.Background(), customer, CheckoutRequest{CartID: 1})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_AlreadyOrdered(t *testing.T) {
	f := newFixture(t, nil)
	f.carts.carts[1].IsOrdered = true

	_, err := f.svc.Checkout(context.Background(), customer, CheckoutRequest{CartID: 1})
	require.ErrorIs(t, err, cart.ErrAlreadyOrdered)
}

func TestCheckout_OutOfStock(t *testing.T) {
	f := newFixture(t, nil)
	f.carts.items[1] = []cart.Item{{ID: 10, CartID: 1, ProductID: 100, Quantity: 6}}

	_, err := f.svc.Checkout(context.Background(), customer, CheckoutRequest{CartID: 1})
	var oos *catalog.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, int64(100), oos.ProductID)
	assert.Equal(t, 6, oos.Requested)
	assert.Equal(t, 5, oos.Available)
}

func TestGet_Ownership(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)

	_, err := f.svc.Get(context.Background(), customer, o.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), stranger, o.ID)
	require.ErrorIs(t, err, ErrNotOwner)

	// Admins read anything.
	_, err = f.svc.Get(context.Background(), admin, o.ID)
	require.NoError(t, err)
}

func TestListAll_SuperAdminOnly(t *testing.T) {
	f := newFixture(t, nil)
	f.checkout(t)

	_, err := f.svc.ListAll(context.Background(), admin)
	require.ErrorIs(t, err, identity.ErrForbidden)

	orders, err := f.svc.ListAll(context.Background(), superOp)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	// Customers cannot drive the lifecycle.
	err := f.svc.UpdateStatus(ctx, customer, o.ID, "completed")
	require.ErrorIs(t, err, identity.ErrForbidden)

	err = f.svc.UpdateStatus(ctx, admin, o.ID, "delivered")
	require.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, f.svc.UpdateStatus(ctx, admin, o.ID, "completed"))

	// Completed is terminal.
	err = f.svc.UpdateStatus(ctx, admin, o.ID, "shipped")
	require.ErrorIs(t, err, ErrTerminalState)
	err = f.svc.UpdateStatus(ctx, admin, o.ID, "cancelled")
	require.ErrorIs(t, err, ErrCannotCancelCompleted)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Cancel(ctx, admin, o.ID))
	assert.Equal(t, StatusCancelled, o.Status)

	// Cancelling twice is a no-op, not an error.
	require.NoError(t, f.svc.Cancel(ctx, admin, o.ID))
}

func TestCancel_CompletedOrder(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateStatus(ctx, admin, o.ID, "completed"))
	err := f.svc.Cancel(ctx, admin, o.ID)
	require.ErrorIs(t, err, ErrCannotCancelCompleted)
}

func TestAttachPayment(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	p, err := f.svc.AttachPayment(ctx, customer, o.ID, "card", d("40.00"))
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, p.Status)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)

	// Second payment is rejected.
	_, err = f.svc.AttachPayment(ctx, customer, o.ID, "card", d("40.00"))
	require.ErrorIs(t, err, ErrPaymentExists)
}

func TestAttachPayment_AmountMismatch(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)

	_, err := f.svc.AttachPayment(context.Background(), customer, o.ID, "card", d("39.99"))
	require.ErrorIs(t, err, ErrAmountMismatch)
}

func TestRefundPayment(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	_, err := f.svc.AttachPayment(ctx, customer, o.ID, "card", d("40.00"))
	require.NoError(t, err)

	// Refunds require a cancelled order.
	err = f.svc.RefundPayment(ctx, admin, o.ID)
	require.ErrorIs(t, err, ErrNotRefundable)

	require.NoError(t, f.svc.Cancel(ctx, admin, o.ID))
	require.NoError(t, f.svc.RefundPayment(ctx, admin, o.ID))
	assert.Equal(t, PaymentRefunded, o.PaymentStatus)
}

func TestShipmentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	sh, err := f.svc.AttachShipment(ctx, admin, o.ID, "TRACK-1")
	require.NoError(t, err)
	assert.Equal(t, ShipmentPending, sh.Status)

	_, err = f.svc.AttachShipment(ctx, admin, o.ID, "TRACK-2")
	require.ErrorIs(t, err, ErrShipmentExists)

	shippedAt := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.MarkShipped(ctx, admin, o.ID, shippedAt))
	assert.Equal(t, StatusShipped, o.Status)

	// Delivery cannot precede shipping.
	err = f.svc.MarkDelivered(ctx, admin, o.ID, shippedAt.Add(-time.Hour))
	require.ErrorIs(t, err, ErrShipmentDates)

	require.NoError(t, f.svc.MarkDelivered(ctx, admin, o.ID, shippedAt.Add(48*time.Hour)))
	got, err := f.orders.GetShipment(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, ShipmentDelivered, got.Status)
}

func TestMarkShipped_RequiresPendingShipment(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	_, err := f.svc.AttachShipment(ctx, admin, o.ID, "TRACK-1")
	require.NoError(t, err)
	when := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.MarkShipped(ctx, admin, o.ID, when))

	err = f.svc.MarkShipped(ctx, admin, o.ID, when)
	require.ErrorIs(t, err, ErrShipmentState)
}

func TestIssueInvoice(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)
	ctx := context.Background()

	inv, err := f.svc.IssueInvoice(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"))
	assert.True(t, inv.TotalAmount.Equal(d("40.00")))
	// 20% tax on 40.00.
	assert.True(t, inv.TaxAmount.Equal(d("8.00")), "tax %s", inv.TaxAmount)
	assert.Equal(t, inv.IssuedDate.AddDate(0, 0, 14), inv.DueDate)
	assert.False(t, inv.Paid)

	_, err = f.svc.IssueInvoice(ctx, admin, o.ID)
	require.ErrorIs(t, err, ErrInvoiceExists)
}

func TestIssueInvoice_CustomerForbidden(t *testing.T) {
	f := newFixture(t, nil)
	o := f.checkout(t)

	_, err := f.svc.IssueInvoice(context.Background(), customer, o.ID)
	require.ErrorIs(t, err, identity.ErrForbidden)
}
