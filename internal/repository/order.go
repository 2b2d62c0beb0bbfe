package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
	"github.com/mkuznetsov/storefront/internal/domain/catalog"
	"github.com/mkuznetsov/storefront/internal/domain/order"
)

const (
	markCartOrderedSQL = `UPDATE carts SET is_ordered = TRUE WHERE id = $1 AND NOT is_ordered`

	decrementStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2`

	stockForUpdateSQL = `SELECT stock_quantity FROM products WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (user_id, total_amount, status, payment_status, created_at, shipping_address, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	getOrderSQL = `SELECT id, user_id, total_amount, status, payment_status, created_at, shipping_address, coupon_code
		FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, total_amount, status, payment_status, created_at, shipping_address, coupon_code
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	listOrdersSQL = `SELECT id, user_id, total_amount, status, payment_status, created_at, shipping_address, coupon_code
		FROM orders ORDER BY created_at DESC, id DESC`

	listOrderItemsSQL = `SELECT id, order_id, product_id, quantity, price_at_purchase
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	setOrderPaymentStatusSQL = `UPDATE orders SET payment_status = $2 WHERE id = $1`

	insertPaymentSQL = `INSERT INTO payments (order_id, payment_date, payment_method, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	getPaymentSQL = `SELECT id, order_id, payment_date, payment_method, amount, status
		FROM payments WHERE order_id = $1`

	setPaymentRecordStatusSQL = `UPDATE payments SET status = $2 WHERE order_id = $1`

	insertShipmentSQL = `INSERT INTO shipments (order_id, tracking_number, shipped_date, delivery_date, shipment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	getShipmentSQL = `SELECT id, order_id, tracking_number, shipped_date, delivery_date, shipment_status
		FROM shipments WHERE order_id = $1`

	updateShipmentSQL = `UPDATE shipments SET tracking_number = $2, shipped_date = $3, delivery_date = $4, shipment_status = $5
		WHERE id = $1`

	insertInvoiceSQL = `INSERT INTO invoices (order_id, invoice_number, issued_date, due_date, total_amount, tax_amount, paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	getInvoiceSQL = `SELECT id, order_id, invoice_number, issued_date, due_date, total_amount, tax_amount, paid
		FROM invoices WHERE order_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart runs the checkout write set in one transaction: freeze the
// cart, insert the order and its items, and decrement stock per line. The
// cart and stock updates are conditional; a zero row count means a
// concurrent checkout won, and the transaction rolls back with the same
// domain error the service pre-check would have produced.
func (r *OrderRepository) CreateFromCart(ctx context.Context, o *order.Order, cartID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("beginning checkout", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, markCartOrderedSQL, cartID)
	if err != nil {
		return storageErr("marking cart ordered", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrAlreadyOrdered
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, o.TotalAmount, o.Status, o.PaymentStatus,
		o.CreatedAt, o.ShippingAddress, o.CouponCode,
	).Scan(&o.ID)
	if err != nil {
		return storageErr("inserting order", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID

		err = tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, it.ProductID, it.Quantity, it.PriceAtPurchase,
		).Scan(&it.ID)
		if err != nil {
			return storageErr("inserting order item", err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, it.ProductID, it.Quantity)
		if err != nil {
			return storageErr("decrementing stock", err)
		}
		if tag.RowsAffected() == 0 {
			var available int
			if err := tx.QueryRow(ctx, stockForUpdateSQL, it.ProductID).Scan(&available); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return catalog.ErrNotFound
				}
				return storageErr("reading stock", err)
			}
			return &catalog.OutOfStockError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: available,
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("committing checkout", err)
	}
	return nil
}

// GetByID returns an order with its items loaded.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, storageErr("getting order", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, storageErr("getting order", err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns a user's orders, newest first, items included.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, storageErr("listing user orders", err)
	}
	return r.collectWithItems(ctx, rows)
}

// List returns every order, newest first, items included.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, storageErr("listing orders", err)
	}
	return r.collectWithItems(ctx, rows)
}

func (r *OrderRepository) collectWithItems(ctx context.Context, rows pgx.Rows) ([]order.Order, error) {
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, storageErr("collecting orders", err)
	}
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID int64) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, storageErr("listing order items", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase)
		return it, err
	})
}

// UpdateStatus overwrites an order's status. Transition legality is the
// service's responsibility.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return storageErr("updating order status", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetPaymentStatus overwrites the payment status on the order row.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id int64, status order.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, setOrderPaymentStatusSQL, id, status)
	if err != nil {
		return storageErr("setting order payment status", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// CreatePayment inserts the order's payment record. The UNIQUE (order_id)
// constraint rejects a second one.
func (r *OrderRepository) CreatePayment(ctx context.Context, p *order.Payment) error {
	err := r.pool.QueryRow(ctx, insertPaymentSQL,
		p.OrderID, p.Date, p.Method, p.Amount, p.Status,
	).Scan(&p.ID)
	if err != nil {
		return storageErr("creating payment", err)
	}
	return nil
}

// GetPayment returns the payment attached to an order.
func (r *OrderRepository) GetPayment(ctx context.Context, orderID int64) (*order.Payment, error) {
	var p order.Payment
	err := r.pool.QueryRow(ctx, getPaymentSQL, orderID).Scan(
		&p.ID, &p.OrderID, &p.Date, &p.Method, &p.Amount, &p.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, storageErr("getting payment", err)
	}
	return &p, nil
}

// SetPaymentRecordStatus overwrites the payment record's status.
func (r *OrderRepository) SetPaymentRecordStatus(ctx context.Context, orderID int64, status order.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, setPaymentRecordStatusSQL, orderID, status)
	if err != nil {
		return storageErr("setting payment record status", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// CreateShipment inserts the order's shipment record.
func (r *OrderRepository) CreateShipment(ctx context.Context, sh *order.Shipment) error {
	err := r.pool.QueryRow(ctx, insertShipmentSQL,
		sh.OrderID, sh.TrackingNumber, sh.ShippedDate, sh.DeliveryDate, sh.Status,
	).Scan(&sh.ID)
	if err != nil {
		return storageErr("creating shipment", err)
	}
	return nil
}

// GetShipment returns the shipment attached to an order.
func (r *OrderRepository) GetShipment(ctx context.Context, orderID int64) (*order.Shipment, error) {
	var sh order.Shipment
	err := r.pool.QueryRow(ctx, getShipmentSQL, orderID).Scan(
		&sh.ID, &sh.OrderID, &sh.TrackingNumber, &sh.ShippedDate, &sh.DeliveryDate, &sh.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, storageErr("getting shipment", err)
	}
	return &sh, nil
}

// UpdateShipment overwrites a shipment's mutable fields.
func (r *OrderRepository) UpdateShipment(ctx context.Context, sh *order.Shipment) error {
	tag, err := r.pool.Exec(ctx, updateShipmentSQL,
		sh.ID, sh.TrackingNumber, sh.ShippedDate, sh.DeliveryDate, sh.Status,
	)
	if err != nil {
		return storageErr("updating shipment", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// CreateInvoice inserts the order's invoice. The UNIQUE (order_id)
// constraint guarantees at most one per order.
func (r *OrderRepository) CreateInvoice(ctx context.Context, inv *order.Invoice) error {
	err := r.pool.QueryRow(ctx, insertInvoiceSQL,
		inv.OrderID, inv.InvoiceNumber, inv.IssuedDate, inv.DueDate,
		inv.TotalAmount, inv.TaxAmount, inv.Paid,
	).Scan(&inv.ID)
	if err != nil {
		return storageErr("creating invoice", err)
	}
	return nil
}

// GetInvoice returns the invoice attached to an order.
func (r *OrderRepository) GetInvoice(ctx context.Context, orderID int64) (*order.Invoice, error) {
	var inv order.Invoice
	err := r.pool.QueryRow(ctx, getInvoiceSQL, orderID).Scan(
		&inv.ID, &inv.OrderID, &inv.InvoiceNumber, &inv.IssuedDate, &inv.DueDate,
		&inv.TotalAmount, &inv.TaxAmount, &inv.Paid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, storageErr("getting invoice", err)
	}
	return &inv, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.CreatedAt, &o.ShippingAddress, &o.CouponCode,
	)
	return o, err
}
