package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no coupon exists for a given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrIneligible is returned when a coupon is inactive or outside its
	// validity window.
	ErrIneligible = errors.New("coupon not eligible")
)

// Coupon is a discount rule keyed by a unique code. DiscountAmount and
// DiscountPercent are mutually exclusive by convention; when both are
// populated the flat amount takes precedence (see Apply).
type Coupon struct {
	ID              int64
	Code            string
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	ValidFrom       *time.Time
	ValidTo         *time.Time
	Active          bool
}

// Eligible reports whether the coupon may be applied at the given instant:
// it must be active and now must fall inside [ValidFrom, ValidTo]. A nil
// boundary is open-ended.
func (c *Coupon) Eligible(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return false
	}
	return true
}

// Repository provides lookup of coupons by their code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
