//go:build unit

package coupon_test

import (
	"strings"
	"testing"
	"time"

	"shop-automation/internal/domain/coupon"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCode(t *testing.T, s string) coupon.Code {
	t.Helper()
	code, err := coupon.NewCode(s)
	require.NoError(t, err)
	return code
}

func mustDiscount(t *testing.T, percent int) coupon.Discount {
	t.Helper()
	d, err := coupon.NewPercentageDiscount(percent)
	require.NoError(t, err)
	return d
}

func TestNewCoupon(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	customerID := uuid.New()

	t.Run("basic success case", func(t *testing.T) {
		c, err := coupon.NewCoupon(
			mustCode(t, "WELCOME123"),
			mustDiscount(t, 15),
			&customerID,
			true,
			issuedAt,
			issuedAt.Add(30*24*time.Hour),
		)
		require.NoError(t, err)
		require.NotNil(t, c)

		assert.NotEqual(t, uuid.Nil, c.ID())
		assert.Equal(t, "WELCOME123", c.Code().String())
		assert.Equal(t, 15, c.Discount().PercentOff())
		assert.Equal(t, customerID, *c.CustomerID())
		assert.True(t, c.FirstPurchaseOnly())
	})

	t.Run("expiry must be strictly after issuance", func(t *testing.T) {
		cases := []struct {
			name      string
			expiresAt time.Time
			errIs     error
		}{
			{name: "expiry before issuance", expiresAt: issuedAt.Add(-time.Hour), errIs: coupon.ErrExpiryNotAfter},
			{name: "expiry equals issuance", expiresAt: issuedAt, errIs: coupon.ErrExpiryNotAfter},
			{name: "expiry one second after", expiresAt: issuedAt.Add(time.Second)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := coupon.NewCoupon(mustCode(t, "CART123"), mustDiscount(t, 10), &customerID, false, issuedAt, tc.expiresAt)
				if tc.errIs != nil {
					assert.ErrorIs(t, err, tc.errIs)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("first purchase restriction requires a customer scope", func(t *testing.T) {
		_, err := coupon.NewCoupon(mustCode(t, "WELCOME123"), mustDiscount(t, 15), nil, true, issuedAt, issuedAt.Add(time.Hour))
		assert.ErrorIs(t, err, coupon.ErrInvalidRecipient)
	})
}

func TestCouponRedemption(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := issuedAt.Add(7 * 24 * time.Hour)
	customerID := uuid.New()

	newCoupon := func(t *testing.T, firstPurchaseOnly bool) *coupon.Coupon {
		t.Helper()
		c, err := coupon.NewCoupon(mustCode(t, "BDAY123"), mustDiscount(t, 25), &customerID, firstPurchaseOnly, issuedAt, expiresAt)
		require.NoError(t, err)
		return c
	}

	t.Run("redeemable up to and including expiry", func(t *testing.T) {
		c := newCoupon(t, false)
		assert.True(t, c.IsRedeemableAt(issuedAt))
		assert.True(t, c.IsRedeemableAt(expiresAt))
		assert.False(t, c.IsRedeemableAt(expiresAt.Add(time.Nanosecond)))
	})

	t.Run("expired coupon is rejected", func(t *testing.T) {
		c := newCoupon(t, false)
		err := c.ValidateRedemption(expiresAt.Add(time.Hour), customerID, 0)
		assert.ErrorIs(t, err, coupon.ErrCouponExpired)
	})

	t.Run("coupon is scoped to its customer", func(t *testing.T) {
		c := newCoupon(t, false)
		err := c.ValidateRedemption(issuedAt.Add(time.Hour), uuid.New(), 0)
		assert.ErrorIs(t, err, coupon.ErrWrongCustomer)
	})

	t.Run("first purchase restriction", func(t *testing.T) {
		c := newCoupon(t, true)
		assert.NoError(t, c.ValidateRedemption(issuedAt.Add(time.Hour), customerID, 0))
		assert.ErrorIs(t, c.ValidateRedemption(issuedAt.Add(time.Hour), customerID, 1), coupon.ErrFirstPurchase)
	})

	t.Run("unrestricted coupon ignores purchase history", func(t *testing.T) {
		c := newCoupon(t, false)
		assert.NoError(t, c.ValidateRedemption(issuedAt.Add(time.Hour), customerID, 10))
	})
}

func TestDiscount(t *testing.T) {
	t.Run("percent bounds", func(t *testing.T) {
		cases := []struct {
			name    string
			percent int
			errIs   error
		}{
			{name: "zero percent", percent: 0, errIs: coupon.ErrInvalidDiscountPercent},
			{name: "negative percent", percent: -5, errIs: coupon.ErrInvalidDiscountPercent},
			{name: "minimum percent", percent: 1},
			{name: "maximum percent", percent: 100},
			{name: "above maximum", percent: 101, errIs: coupon.ErrInvalidDiscountPercent},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := coupon.NewPercentageDiscount(tc.percent)
				if tc.errIs != nil {
					assert.ErrorIs(t, err, tc.errIs)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("apply", func(t *testing.T) {
		d := mustDiscount(t, 25)
		assert.Equal(t, int64(7500), d.Apply(10000))
		assert.Equal(t, int64(0), mustDiscount(t, 100).Apply(10000))
		assert.Equal(t, int64(0), d.Apply(0))
	})
}

func TestCode(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		code, err := coupon.NewCode("  cart1234  ")
		require.NoError(t, err)
		assert.Equal(t, "CART1234", code.String())
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		for _, s := range []string{"", "AB", "HAS-DASH", "toolongtoolongtoolong1234"} {
			_, err := coupon.NewCode(s)
			assert.ErrorIs(t, err, coupon.ErrInvalidCouponCode, "code %q", s)
		}
	})

	t.Run("issued codes are deterministic per event", func(t *testing.T) {
		eventID := uuid.New()
		first, err := coupon.NewIssuedCode("CART", eventID)
		require.NoError(t, err)
		second, err := coupon.NewIssuedCode("CART", eventID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("distinct events never share a code", func(t *testing.T) {
		first, err := coupon.NewIssuedCode("WELCOME", uuid.New())
		require.NoError(t, err)
		second, err := coupon.NewIssuedCode("WELCOME", uuid.New())
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("issued codes stay within the code format", func(t *testing.T) {
		for _, prefix := range []string{"CART", "WELCOME", "WINBACK", "BDAY"} {
			code, err := coupon.NewIssuedCode(prefix, uuid.New())
			require.NoError(t, err, "prefix %q", prefix)
			assert.True(t, strings.HasPrefix(code.String(), prefix))
		}
	})
}
