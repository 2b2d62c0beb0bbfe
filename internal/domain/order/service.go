package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
	"github.com/mkuznetsov/storefront/internal/domain/catalog"
	"github.com/mkuznetsov/storefront/internal/domain/coupon"
	"github.com/mkuznetsov/storefront/internal/domain/identity"
)

var (
	// ErrEmptyCart is returned when checking out a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAmountMismatch is returned when a payment amount differs from the
	// order total.
	ErrAmountMismatch = errors.New("payment amount does not match order total")
	// ErrPaymentExists is returned when attaching a second payment.
	ErrPaymentExists = errors.New("order already has a payment")
	// ErrNotRefundable is returned when refunding a payment on an order
	// that is not cancelled, or one that was never paid.
	ErrNotRefundable = errors.New("payment is not refundable")
	// ErrShipmentExists is returned when attaching a second shipment.
	ErrShipmentExists = errors.New("order already has a shipment")
	// ErrShipmentState is returned on an invalid shipment status change.
	ErrShipmentState = errors.New("invalid shipment state")
	// ErrShipmentDates is returned when a delivery date would precede the
	// shipped date.
	ErrShipmentDates = errors.New("delivery date precedes shipped date")
	// ErrInvoiceExists is returned when an invoice was already issued.
	ErrInvoiceExists = errors.New("order already has an invoice")
	// ErrNotOwner is returned when a customer reads an order they do not own.
	ErrNotOwner = errors.New("order belongs to another user")
)

// CheckoutRequest holds the input for converting a cart into an order.
type CheckoutRequest struct {
	CartID          int64
	ShippingAddress string
	CouponCode      string
}

// Service drives the order lifecycle: checkout, status transitions, and the
// payment/shipment/invoice sub-records.
type Service struct {
	carts    cart.Repository
	products catalog.Repository
	coupons  coupon.Validator
	orders   Repository
	taxRate  decimal.Decimal
	now      func() time.Time
}

// NewService creates an order Service. taxRate is the fraction applied when
// issuing invoices (e.g. 0.2 for 20%); pass decimal.Zero to disable.
func NewService(
	carts cart.Repository,
	products catalog.Repository,
	coupons coupon.Validator,
	orders Repository,
	taxRate decimal.Decimal,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		orders:   orders,
		taxRate:  taxRate,
		now:      time.Now,
	}
}

// Checkout converts the identified cart into an order: it validates the
// cart, snapshots current prices onto order items, applies an optional
// coupon, and hands the result to the repository, which atomically persists
// the order, decrements stock, and freezes the cart. On any failure nothing
// is applied.
func (s *Service) Checkout(ctx context.Context, id identity.Identity, req CheckoutRequest) (*Order, error) {
	c, err := s.carts.GetByID(ctx, req.CartID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c.UserID != id.UserID {
		return nil, identity.ErrForbidden
	}
	if c.IsOrdered {
		return nil, cart.ErrAlreadyOrdered
	}

	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Snapshot prices and pre-check stock. The repository re-validates
	// stock inside the transaction; this check only fails fast.
	subtotal := decimal.Zero
	orderItems := make([]Item, len(items))
	for i, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, catalog.ErrNotFound
		}
		if it.Quantity > p.StockQuantity {
			return nil, &catalog.OutOfStockError{
				ProductID: p.ID,
				Requested: it.Quantity,
				Available: p.StockQuantity,
			}
		}
		orderItems[i] = Item{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: p.Price,
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	total := subtotal.Round(2)
	if req.CouponCode != "" {
		total, _, err = s.coupons.Validate(ctx, req.CouponCode, subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
	}

	o := &Order{
		UserID:          id.UserID,
		TotalAmount:     total,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		CreatedAt:       s.now(),
		ShippingAddress: req.ShippingAddress,
		CouponCode:      req.CouponCode,
		Items:           orderItems,
	}
	if err := s.orders.CreateFromCart(ctx, o, c.ID); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// Get returns an order. Customers may only read their own orders; admins
// may read any.
func (s *Service) Get(ctx context.Context, id identity.Identity, orderID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != id.UserID {
		if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
			return nil, ErrNotOwner
		}
	}
	return o, nil
}

// ListForUser returns the caller's own orders.
func (s *Service) ListForUser(ctx context.Context, id identity.Identity) ([]Order, error) {
	return s.orders.ListByUser(ctx, id.UserID)
}

// ListAll returns every order. Super-admin only.
func (s *Service) ListAll(ctx context.Context, id identity.Identity) ([]Order, error) {
	if err := identity.Authorize(id, identity.RoleSuperAdmin); err != nil {
		return nil, err
	}
	return s.orders.List(ctx)
}

// UpdateStatus moves an order to a new status. Admin only. Unknown status
// values fail with ErrInvalidStatus; forbidden transitions fail with
// ErrTerminalState (or ErrCannotCancelCompleted for completed → cancelled).
func (s *Service) UpdateStatus(ctx context.Context, id identity.Identity, orderID int64, status string) error {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return err
	}
	to, err := ParseStatus(status)
	if err != nil {
		return err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := checkTransition(o.Status, to); err != nil {
		return err
	}

	return s.orders.UpdateStatus(ctx, orderID, to)
}

// Cancel sets an order's status to cancelled. Admin only. Completed orders
// cannot be cancelled; cancelled-order items are not restocked.
func (s *Service) Cancel(ctx context.Context, id identity.Identity, orderID int64) error {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status == StatusCompleted {
		return ErrCannotCancelCompleted
	}
	if o.Status == StatusCancelled {
		return nil
	}

	return s.orders.UpdateStatus(ctx, orderID, StatusCancelled)
}

// AttachPayment records the payment for an order and marks it paid. The
// amount must equal the order total exactly.
func (s *Service) AttachPayment(ctx context.Context, id identity.Identity, orderID int64, method string, amount decimal.Decimal) (*Payment, error) {
	o, err := s.Get(ctx, id, orderID)
	if err != nil {
		return nil, err
	}
	if !amount.Equal(o.TotalAmount) {
		return nil, errors.Wrapf(ErrAmountMismatch, "got %s, want %s", amount, o.TotalAmount)
	}
	if _, err := s.orders.GetPayment(ctx, orderID); err == nil {
		return nil, ErrPaymentExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p := &Payment{
		OrderID: orderID,
		Date:    s.now(),
		Method:  method,
		Amount:  amount,
		Status:  PaymentPaid,
	}
	if err := s.orders.CreatePayment(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	if err := s.orders.SetPaymentStatus(ctx, orderID, PaymentPaid); err != nil {
		return nil, errors.Wrap(err, "set payment status")
	}
	return p, nil
}

// RefundPayment flips a paid payment to refunded. Admin only; the order
// must already be cancelled.
func (s *Service) RefundPayment(ctx context.Context, id identity.Identity, orderID int64) error {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusCancelled || o.PaymentStatus != PaymentPaid {
		return ErrNotRefundable
	}

	if err := s.orders.SetPaymentRecordStatus(ctx, orderID, PaymentRefunded); err != nil {
		return errors.Wrap(err, "set payment record status")
	}
	return s.orders.SetPaymentStatus(ctx, orderID, PaymentRefunded)
}

// AttachShipment creates the pending shipment for an order.
func (s *Service) AttachShipment(ctx context.Context, id identity.Identity, orderID int64, tracking string) (*Shipment, error) {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	if _, err := s.orders.GetShipment(ctx, orderID); err == nil {
		return nil, ErrShipmentExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	sh := &Shipment{
		OrderID:        orderID,
		TrackingNumber: tracking,
		Status:         ShipmentPending,
	}
	if err := s.orders.CreateShipment(ctx, sh); err != nil {
		return nil, errors.Wrap(err, "create shipment")
	}
	return sh, nil
}

// MarkShipped stamps the shipment's shipped date and advances the order to
// shipped. Admin only.
func (s *Service) MarkShipped(ctx context.Context, id identity.Identity, orderID int64, when time.Time) error {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return err
	}

	sh, err := s.orders.GetShipment(ctx, orderID)
	if err != nil {
		return err
	}
	if sh.Status != ShipmentPending {
		return ErrShipmentState
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := checkTransition(o.Status, StatusShipped); err != nil {
		return err
	}

	sh.Status = ShipmentShipped
	sh.ShippedDate = &when
	if err := s.orders.UpdateShipment(ctx, sh); err != nil {
		return errors.Wrap(err, "update shipment")
	}
	return s.orders.UpdateStatus(ctx, orderID, StatusShipped)
}

// MarkDelivered stamps the delivery date. The shipment must be shipped and
// the delivery date must not precede the shipped date.
func (s *Service) MarkDelivered(ctx context.Context, id identity.Identity, orderID int64, when time.Time) error {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return err
	}

	sh, err := s.orders.GetShipment(ctx, orderID)
	if err != nil {
		return err
	}
	if sh.Status != ShipmentShipped {
		return ErrShipmentState
	}
	if sh.ShippedDate != nil && when.Before(*sh.ShippedDate) {
		return ErrShipmentDates
	}

	sh.Status = ShipmentDelivered
	sh.DeliveryDate = &when
	return s.orders.UpdateShipment(ctx, sh)
}

// GetInvoiceRecord returns an order's invoice, or ErrNotFound when none was
// issued. Access control is the caller's concern.
func (s *Service) GetInvoiceRecord(ctx context.Context, orderID int64) (*Invoice, error) {
	return s.orders.GetInvoice(ctx, orderID)
}

// IssueInvoice derives the invoice from a finalized order, exactly once.
// Admin only. The invoice number is unique and never reassigned.
func (s *Service) IssueInvoice(ctx context.Context, id identity.Identity, orderID int64) (*Invoice, error) {
	if err := identity.Authorize(id, identity.RoleAdmin); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.GetInvoice(ctx, orderID); err == nil {
		return nil, ErrInvoiceExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now()
	inv := &Invoice{
		OrderID:       orderID,
		InvoiceNumber: fmt.Sprintf("INV-%s", uuid.New()),
		IssuedDate:    now,
		DueDate:       now.AddDate(0, 0, 14),
		TotalAmount:   o.TotalAmount,
		TaxAmount:     o.TotalAmount.Mul(s.taxRate).Round(2),
		Paid:          o.PaymentStatus == PaymentPaid,
	}
	if err := s.orders.CreateInvoice(ctx, inv); err != nil {
		return nil, errors.Wrap(err, "create invoice")
	}
	return inv, nil
}
