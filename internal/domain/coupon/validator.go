package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator resolves a coupon code and computes the discounted total for an
// order amount.
type Validator interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (final, discount decimal.Decimal, err error)
}

// RepoValidator implements Validator by looking up coupons from a Repository,
// enforcing eligibility, and delegating the arithmetic to Apply.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon for code, rejects it with ErrIneligible when
// inactive or outside its validity window, and returns the final amount and
// discount. ErrNotFound passes through from the repository untouched.
func (v *RepoValidator) Validate(ctx context.Context, code string, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, decimal.Zero, ErrNotFound
		}
		return decimal.Zero, decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	if !c.Eligible(v.now()) {
		return decimal.Zero, decimal.Zero, ErrIneligible
	}

	final, discount := Apply(c, amount)
	return final, discount, nil
}
