package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an order, or one of its attached records,
// does not exist.
var ErrNotFound = errors.New("order not found")

// Order is an immutable snapshot of a checked-out cart. TotalAmount is the
// post-discount total; prices live on the items, frozen at checkout.
type Order struct {
	ID              int64
	UserID          int64
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	ShippingAddress string
	CouponCode      string
	Items           []Item
}

// Item is a single line of an order. PriceAtPurchase is a frozen copy of
// the product price at checkout time, immune to later price changes.
type Item struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// Payment records the single payment attached to an order. Amount always
// equals the order's TotalAmount.
type Payment struct {
	ID      int64
	OrderID int64
	Date    time.Time
	Method  string
	Amount  decimal.Decimal
	Status  PaymentStatus
}

// Shipment records the single shipment attached to an order. ShippedDate is
// never later than DeliveryDate when both are set.
type Shipment struct {
	ID             int64
	OrderID        int64
	TrackingNumber string
	ShippedDate    *time.Time
	DeliveryDate   *time.Time
	Status         ShipmentStatus
}

// Invoice is derived exactly once from a finalized order and never
// regenerated.
type Invoice struct {
	ID            int64
	OrderID       int64
	InvoiceNumber string
	IssuedDate    time.Time
	DueDate       time.Time
	TotalAmount   decimal.Decimal
	TaxAmount     decimal.Decimal
	Paid          bool
}

// Repository defines persistence operations for orders and their attached
// payment, shipment, and invoice records.
type Repository interface {
	// CreateFromCart persists the order with its items, decrements stock for
	// every line, and marks the cart ordered — atomically. Implementations
	// must re-validate stock inside the transaction: when a concurrent
	// checkout drained a product, the whole transaction fails with
	// *catalog.OutOfStockError and nothing is applied. A cart that was
	// concurrently ordered fails the same way with cart.ErrAlreadyOrdered.
	CreateFromCart(ctx context.Context, o *Order, cartID int64) error

	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error

	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, orderID int64) (*Payment, error)
	SetPaymentRecordStatus(ctx context.Context, orderID int64, status PaymentStatus) error

	CreateShipment(ctx context.Context, sh *Shipment) error
	GetShipment(ctx context.Context, orderID int64) (*Shipment, error)
	UpdateShipment(ctx context.Context, sh *Shipment) error

	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, orderID int64) (*Invoice, error)
}
