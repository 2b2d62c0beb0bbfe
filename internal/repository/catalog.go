package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, title, price, description, image_url, stock_quantity, category_id
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, title, price, description, image_url, stock_quantity, category_id
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, title, price, description, image_url, stock_quantity, category_id
		FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products (title, price, description, image_url, stock_quantity, category_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	updateProductSQL = `UPDATE products
		SET title = $2, price = $3, description = $4, image_url = $5, stock_quantity = $6, category_id = $7
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns all products ordered by ID.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, storageErr("listing products", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product, or catalog.ErrNotFound.
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, storageErr("getting product", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, storageErr("getting product", err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, storageErr("getting products by ids", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a product and fills in its generated ID.
func (r *CatalogRepository) Create(ctx context.Context, p *catalog.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Title, p.Price, p.Description, p.ImageURL, p.StockQuantity, p.CategoryID,
	).Scan(&p.ID)
	if err != nil {
		return storageErr("creating product", err)
	}
	return nil
}

// Update overwrites all mutable product fields.
func (r *CatalogRepository) Update(ctx context.Context, p *catalog.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.Price, p.Description, p.ImageURL, p.StockQuantity, p.CategoryID,
	)
	if err != nil {
		return storageErr("updating product", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return storageErr("deleting product", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by ID.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, storageErr("listing categories", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Description,
		&p.ImageURL, &p.StockQuantity, &p.CategoryID,
	)
	return p, err
}
