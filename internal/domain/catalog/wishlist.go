package catalog

import "context"

// LikeRepository tracks which users liked which products. All methods are
// explicit queries parameterized by ids; there is no lazy collection
// traversal.
type LikeRepository interface {
	Has(ctx context.Context, userID, productID int64) (bool, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	CountForProduct(ctx context.Context, productID int64) (int, error)
}

// WishlistRepository tracks per-user wishlists. Add is idempotent: adding a
// product already on the wishlist is a no-op.
type WishlistRepository interface {
	Has(ctx context.Context, userID, productID int64) (bool, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	ListByUser(ctx context.Context, userID int64) ([]Product, error)
}
