package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product or category does not exist.
var ErrNotFound = errors.New("product not found")

// OutOfStockError indicates a product cannot cover the requested quantity.
type OutOfStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %d out of stock: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Product is a catalog item available for purchase. StockQuantity is never
// negative; the database enforces the same constraint.
type Product struct {
	ID            int64
	Title         string
	Price         decimal.Decimal
	Description   string
	ImageURL      string
	StockQuantity int
	CategoryID    int64
}

// Category groups products. Referenced, never owned, by product rows.
type Category struct {
	ID   int64
	Name string
}

// Repository defines persistence operations for the product catalog.
// List/Get methods serve the storefront; Create/Update/Delete are admin-only
// and gated by the caller.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
}
