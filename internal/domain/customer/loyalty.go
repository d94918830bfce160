package customer

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyPointsFor converts an order total into loyalty points: one point per
// full 1000 cents spent.
func LoyaltyPointsFor(orderTotalCents int64) int32 {
	if orderTotalCents <= 0 {
		return 0
	}
	return int32(orderTotalCents / 1000)
}

// LoyaltyState is the slice of the customer record the purchase handler
// touches. Mutation happens store-side as an atomic increment, never as a
// read-then-overwrite.
type LoyaltyState struct {
	CustomerID     uuid.UUID
	LoyaltyPoints  int32
	TotalPurchases int32
	LastPurchaseAt *time.Time
}
