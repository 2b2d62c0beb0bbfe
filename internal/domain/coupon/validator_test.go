package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	coupons map[string]*Coupon
	err     error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func newValidatorAt(now time.Time, coupons ...*Coupon) *RepoValidator {
	byCode := make(map[string]*Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	v := NewRepoValidator(&mockCouponRepo{coupons: byCode})
	v.now = func() time.Time { return now }
	return v
}

func TestValidate_Applies(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	v := newValidatorAt(now, &Coupon{
		Code:            "SAVE20",
		DiscountPercent: d("20"),
		Active:          true,
	})

	final, discount, err := v.Validate(context.Background(), "SAVE20", d("50.00"))
	require.NoError(t, err)
	assert.True(t, final.Equal(d("40.00")), "final %s", final)
	assert.True(t, discount.Equal(d("10.00")), "discount %s", discount)
}

func TestValidate_UnknownCode(t *testing.T) {
	v := newValidatorAt(time.Now())

	_, _, err := v.Validate(context.Background(), "NOPE", d("50"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_Inactive(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	v := newValidatorAt(now, &Coupon{Code: "OLD", DiscountAmount: d("5"), Active: false})

	_, _, err := v.Validate(context.Background(), "OLD", d("50"))
	require.ErrorIs(t, err, ErrIneligible)
}

func TestValidate_ValidityWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-24 * time.Hour)
	after := now.Add(24 * time.Hour)

	tests := []struct {
		name    string
		from    *time.Time
		to      *time.Time
		wantErr error
	}{
		{name: "inside window", from: &before, to: &after},
		{name: "not yet valid", from: &after, wantErr: ErrIneligible},
		{name: "expired", to: &before, wantErr: ErrIneligible},
		{name: "open ended", from: nil, to: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidatorAt(now, &Coupon{
				Code:           "WINDOW",
				DiscountAmount: d("5"),
				ValidFrom:      tt.from,
				ValidTo:        tt.to,
				Active:         true,
			})
			_, _, err := v.Validate(context.Background(), "WINDOW", d("50"))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
