package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
)

var (
	_ catalog.LikeRepository     = (*LikeRepository)(nil)
	_ catalog.WishlistRepository = (*WishlistRepository)(nil)
)

// LikeRepository implements catalog.LikeRepository on the product_likes
// join table.
type LikeRepository struct {
	pool *pgxpool.Pool
}

// NewLikeRepository returns a LikeRepository that uses the given pool.
func NewLikeRepository(pool *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

func (r *LikeRepository) Has(ctx context.Context, userID, productID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM product_likes WHERE user_id = $1 AND product_id = $2)`
	var has bool
	if err := r.pool.QueryRow(ctx, q, userID, productID).Scan(&has); err != nil {
		return false, storageErr("checking like", err)
	}
	return has, nil
}

func (r *LikeRepository) Add(ctx context.Context, userID, productID int64) error {
	const q = `INSERT INTO product_likes (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, userID, productID); err != nil {
		return storageErr("adding like", err)
	}
	return nil
}

func (r *LikeRepository) Remove(ctx context.Context, userID, productID int64) error {
	const q = `DELETE FROM product_likes WHERE user_id = $1 AND product_id = $2`
	if _, err := r.pool.Exec(ctx, q, userID, productID); err != nil {
		return storageErr("removing like", err)
	}
	return nil
}

func (r *LikeRepository) CountForProduct(ctx context.Context, productID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM product_likes WHERE product_id = $1`
	var n int
	if err := r.pool.QueryRow(ctx, q, productID).Scan(&n); err != nil {
		return 0, storageErr("counting likes", err)
	}
	return n, nil
}

// WishlistRepository implements catalog.WishlistRepository on the
// wishlist_items join table.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func (r *WishlistRepository) Has(ctx context.Context, userID, productID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`
	var has bool
	if err := r.pool.QueryRow(ctx, q, userID, productID).Scan(&has); err != nil {
		return false, storageErr("checking wishlist", err)
	}
	return has, nil
}

func (r *WishlistRepository) Add(ctx context.Context, userID, productID int64) error {
	const q = `INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, userID, productID); err != nil {
		return storageErr("adding wishlist item", err)
	}
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID int64) error {
	const q = `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`
	if _, err := r.pool.Exec(ctx, q, userID, productID); err != nil {
		return storageErr("removing wishlist item", err)
	}
	return nil
}

// ListByUser returns the full product rows on a user's wishlist.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID int64) ([]catalog.Product, error) {
	const q = `SELECT p.id, p.title, p.price, p.description, p.image_url, p.stock_quantity, p.category_id
		FROM products p
		JOIN wishlist_items w ON w.product_id = p.id
		WHERE w.user_id = $1
		ORDER BY p.id`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, storageErr("listing wishlist", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}
