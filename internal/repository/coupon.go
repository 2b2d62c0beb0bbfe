package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, discount_amount, discount_percent, valid_from, valid_to, active
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	createCouponSQL = `INSERT INTO coupons (code, discount_amount, discount_percent, valid_from, valid_to, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively. Inactive and
// expired coupons are still returned: eligibility is the validator's call,
// and "not found" must stay distinguishable from "not eligible".
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, storageErr("finding coupon", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, storageErr("finding coupon", err)
	}
	return &c, nil
}

// Create inserts a coupon, silently skipping codes that already exist.
// Used by seeding and the bulk import command.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.Code, c.DiscountAmount, c.DiscountPercent, c.ValidFrom, c.ValidTo, c.Active,
	)
	if err != nil {
		return storageErr("creating coupon", err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c         coupon.Coupon
		amount    decimal.Decimal
		percent   decimal.Decimal
		validFrom *time.Time
		validTo   *time.Time
	)
	err := row.Scan(&c.ID, &c.Code, &amount, &percent, &validFrom, &validTo, &c.Active)
	c.DiscountAmount = amount
	c.DiscountPercent = percent
	c.ValidFrom = validFrom
	c.ValidTo = validTo
	return c, err
}
