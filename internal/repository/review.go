package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
)

const (
	createReviewSQL = `INSERT INTO reviews (user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4) RETURNING id`

	listReviewsByProductSQL = `SELECT id, user_id, product_id, rating, comment
		FROM reviews WHERE product_id = $1 ORDER BY id`
)

var _ catalog.ReviewRepository = (*ReviewRepository)(nil)

// ReviewRepository implements catalog.ReviewRepository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create persists a review. Ratings are validated by the caller; the CHECK
// constraint is the backstop.
func (r *ReviewRepository) Create(ctx context.Context, rev *catalog.Review) error {
	err := r.pool.QueryRow(ctx, createReviewSQL,
		rev.UserID, rev.ProductID, rev.Rating, rev.Comment,
	).Scan(&rev.ID)
	if err != nil {
		return storageErr("creating review", err)
	}
	return nil
}

// ListByProduct returns all reviews for a product, oldest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64) ([]catalog.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsByProductSQL, productID)
	if err != nil {
		return nil, storageErr("listing reviews", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Review, error) {
		var rev catalog.Review
		err := row.Scan(&rev.ID, &rev.UserID, &rev.ProductID, &rev.Rating, &rev.Comment)
		return rev, err
	})
}
