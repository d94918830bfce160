//go:build unit

package customer_test

import (
	"testing"

	"shop-automation/internal/domain/customer"

	"github.com/stretchr/testify/assert"
)

func TestLoyaltyPointsFor(t *testing.T) {
	cases := []struct {
		name       string
		totalCents int64
		expected   int32
	}{
		{name: "zero total", totalCents: 0, expected: 0},
		{name: "below one point", totalCents: 999, expected: 0},
		{name: "exactly one point", totalCents: 1000, expected: 1},
		{name: "fraction is floored", totalCents: 2500, expected: 2},
		{name: "large order", totalCents: 1_234_567, expected: 1234},
		{name: "negative total", totalCents: -100, expected: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, customer.LoyaltyPointsFor(tc.totalCents))
		})
	}
}
