package cart

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidQuantity is returned when a quantity is less than 1.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrAlreadyOrdered is returned when mutating or checking out a cart
	// whose is_ordered flag is set. Ordered carts are immutable.
	ErrAlreadyOrdered = errors.New("cart already ordered")
	// ErrNoOpenCart is returned when a user has no open cart. A new cart is
	// created lazily on the next AddItem, never here.
	ErrNoOpenCart = errors.New("no open cart")
	// ErrItemNotFound is returned when a cart item lookup fails.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrNotOwner is returned when mutating a cart line that belongs to
	// another user's cart.
	ErrNotOwner = errors.New("cart item belongs to another user")
	// ErrNotFound is returned when a cart lookup by ID fails.
	ErrNotFound = errors.New("cart not found")
)

// Cart is a user's open shopping cart. Each user has at most one cart with
// IsOrdered == false; checkout flips the flag and freezes the cart.
type Cart struct {
	ID        int64
	UserID    int64
	IsOrdered bool
}

// Item is a line in a cart. At most one Item exists per (cart, product)
// pair; adding a product twice increments Quantity instead.
type Item struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
}

// Repository defines persistence operations for carts and their items.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Cart, error)
	// GetOpenByUser returns the user's open cart or ErrNoOpenCart.
	GetOpenByUser(ctx context.Context, userID int64) (*Cart, error)
	CreateForUser(ctx context.Context, userID int64) (*Cart, error)
	Items(ctx context.Context, cartID int64) ([]Item, error)
	// UpsertItem adds qty to the (cartID, productID) line, creating it when
	// absent, and returns the stored line. The row count per pair never
	// exceeds one.
	UpsertItem(ctx context.Context, cartID, productID int64, qty int) (*Item, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	SetItemQuantity(ctx context.Context, itemID int64, qty int) error
	RemoveItem(ctx context.Context, itemID int64) error
	Clear(ctx context.Context, cartID int64) error
}
