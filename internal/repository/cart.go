package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
)

const (
	getCartByIDSQL = `SELECT id, user_id, is_ordered FROM carts WHERE id = $1`

	getOpenCartSQL = `SELECT id, user_id, is_ordered FROM carts
		WHERE user_id = $1 AND NOT is_ordered`

	createCartSQL = `INSERT INTO carts (user_id) VALUES ($1) RETURNING id`

	listCartItemsSQL = `SELECT id, cart_id, product_id, quantity
		FROM cart_items WHERE cart_id = $1 ORDER BY id`

	// The UNIQUE (cart_id, product_id) constraint turns a duplicate add into
	// a quantity increment, so a product never occupies two rows.
	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, cart_id, product_id, quantity`

	getCartItemSQL = `SELECT id, cart_id, product_id, quantity FROM cart_items WHERE id = $1`

	setCartItemQuantitySQL = `UPDATE cart_items SET quantity = $2 WHERE id = $1`

	removeCartItemSQL = `DELETE FROM cart_items WHERE id = $1`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByID returns a cart by its identifier.
func (r *CartRepository) GetByID(ctx context.Context, id int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartByIDSQL, id).Scan(&c.ID, &c.UserID, &c.IsOrdered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, storageErr("getting cart", err)
	}
	return &c, nil
}

// GetOpenByUser returns the user's open cart. The partial unique index on
// carts guarantees at most one exists.
func (r *CartRepository) GetOpenByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getOpenCartSQL, userID).Scan(&c.ID, &c.UserID, &c.IsOrdered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoOpenCart
		}
		return nil, storageErr("getting open cart", err)
	}
	return &c, nil
}

// CreateForUser opens a fresh cart for the user.
func (r *CartRepository) CreateForUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	c := cart.Cart{UserID: userID}
	if err := r.pool.QueryRow(ctx, createCartSQL, userID).Scan(&c.ID); err != nil {
		return nil, storageErr("creating cart", err)
	}
	return &c, nil
}

// Items returns all lines in a cart.
func (r *CartRepository) Items(ctx context.Context, cartID int64) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, storageErr("listing cart items", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
		return it, err
	})
}

// UpsertItem adds qty to the (cartID, productID) line, creating it when
// absent, and returns the stored line.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, productID int64, qty int) (*cart.Item, error) {
	var it cart.Item
	err := r.pool.QueryRow(ctx, upsertCartItemSQL, cartID, productID, qty).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if err != nil {
		return nil, storageErr("upserting cart item", err)
	}
	return &it, nil
}

// GetItem returns a single cart line, or cart.ErrItemNotFound.
func (r *CartRepository) GetItem(ctx context.Context, itemID int64) (*cart.Item, error) {
	var it cart.Item
	err := r.pool.QueryRow(ctx, getCartItemSQL, itemID).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, storageErr("getting cart item", err)
	}
	return &it, nil
}

// SetItemQuantity overwrites a line's quantity.
func (r *CartRepository) SetItemQuantity(ctx context.Context, itemID int64, qty int) error {
	tag, err := r.pool.Exec(ctx, setCartItemQuantitySQL, itemID, qty)
	if err != nil {
		return storageErr("setting cart item quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes a line.
func (r *CartRepository) RemoveItem(ctx context.Context, itemID int64) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, itemID)
	if err != nil {
		return storageErr("removing cart item", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Clear removes every line from a cart.
func (r *CartRepository) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, cartID); err != nil {
		return storageErr("clearing cart", err)
	}
	return nil
}
