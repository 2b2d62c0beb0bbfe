package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
)

// Service implements the cart aggregate operations. Stock is only
// soft-checked here: nothing is reserved until checkout.
type Service struct {
	products catalog.Repository
	carts    Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(products catalog.Repository, carts Repository) *Service {
	return &Service{products: products, carts: carts}
}

// AddItem puts qty units of a product into the user's open cart, creating
// the cart lazily when none exists. If the product is already in the cart
// its quantity is incremented; the cart never holds two lines for the same
// product. Fails with *catalog.OutOfStockError when the cumulative quantity
// exceeds current stock.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, qty int) (*Item, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	c, err := s.carts.GetOpenByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNoOpenCart) {
			return nil, errors.Wrap(err, "get open cart")
		}
		c, err = s.carts.CreateForUser(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "create cart")
		}
	}

	// Cumulative soft check: existing quantity plus the requested amount
	// must be coverable by current stock.
	have := 0
	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	for _, it := range items {
		if it.ProductID == productID {
			have = it.Quantity
			break
		}
	}
	if have+qty > p.StockQuantity {
		return nil, &catalog.OutOfStockError{
			ProductID: productID,
			Requested: have + qty,
			Available: p.StockQuantity,
		}
	}

	it, err := s.carts.UpsertItem(ctx, c.ID, productID, qty)
	if err != nil {
		return nil, errors.Wrap(err, "upsert cart item")
	}
	return it, nil
}

// SetQuantity overwrites a cart item's quantity. Fails with
// ErrInvalidQuantity when qty < 1, with ErrNotOwner when the line belongs
// to another user's cart, and with ErrAlreadyOrdered when the owning cart
// has been checked out.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID int64, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	it, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return errors.Wrap(err, "get cart item")
	}
	if err := s.requireOwnedOpen(ctx, it.CartID, userID); err != nil {
		return err
	}

	return s.carts.SetItemQuantity(ctx, itemID, qty)
}

// RemoveItem deletes a line from the user's own open cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	it, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return errors.Wrap(err, "get cart item")
	}
	if err := s.requireOwnedOpen(ctx, it.CartID, userID); err != nil {
		return err
	}

	return s.carts.RemoveItem(ctx, itemID)
}

// Clear removes every line from the user's open cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	c, err := s.carts.GetOpenByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, c.ID)
}

// Subtotal returns the user's open-cart items together with the sum of
// quantity times current product price. It is recomputed on every call so
// price changes between add-to-cart and checkout are always reflected.
func (s *Service) Subtotal(ctx context.Context, userID int64) ([]Item, decimal.Decimal, error) {
	c, err := s.carts.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "list cart items")
	}
	if len(items) == 0 {
		return items, decimal.Zero, nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "get products")
	}
	prices := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(prices[it.ProductID].Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return items, sum, nil
}

func (s *Service) requireOwnedOpen(ctx context.Context, cartID, userID int64) error {
	c, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return errors.Wrap(err, "get cart")
	}
	if c.UserID != userID {
		return ErrNotOwner
	}
	if c.IsOrdered {
		return ErrAlreadyOrdered
	}
	return nil
}
