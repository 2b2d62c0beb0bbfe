package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRating is returned when a review rating is outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Review is a user's rating of a product. There is no uniqueness constraint
// on (user, product): a user may review the same product more than once.
type Review struct {
	ID        int64
	UserID    int64
	ProductID int64
	Rating    int
	Comment   string
}

// Validate checks the rating bounds before persistence.
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// AverageRating returns the mean rating rounded to 2 decimal places.
// The second return value is false when there are no reviews; the average
// is undefined in that case.
func AverageRating(reviews []Review) (decimal.Decimal, bool) {
	if len(reviews) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2), true
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	ListByProduct(ctx context.Context, productID int64) ([]Review, error)
}
