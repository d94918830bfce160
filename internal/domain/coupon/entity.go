package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCouponExpired    = errors.New("coupon has expired")
	ErrExpiryNotAfter   = errors.New("coupon expiry must be after issuance")
	ErrWrongCustomer    = errors.New("coupon is scoped to a different customer")
	ErrFirstPurchase    = errors.New("coupon is valid for a first purchase only")
	ErrInvalidRecipient = errors.New("coupon scope requires a customer")
)

// Coupon is a time-boxed percentage discount. It is never mutated after
// issuance; expiry is a read-time check, not an active deletion.
type Coupon struct {
	id                uuid.UUID
	code              Code
	discount          Discount
	customerID        *uuid.UUID
	firstPurchaseOnly bool
	issuedAt          time.Time
	expiresAt         time.Time
}

func NewCoupon(
	code Code,
	discount Discount,
	customerID *uuid.UUID,
	firstPurchaseOnly bool,
	issuedAt, expiresAt time.Time,
) (*Coupon, error) {
	if !expiresAt.After(issuedAt) {
		return nil, ErrExpiryNotAfter
	}
	if firstPurchaseOnly && customerID == nil {
		return nil, ErrInvalidRecipient
	}
	return &Coupon{
		id:                uuid.New(),
		code:              code,
		discount:          discount,
		customerID:        customerID,
		firstPurchaseOnly: firstPurchaseOnly,
		issuedAt:          issuedAt,
		expiresAt:         expiresAt,
	}, nil
}

func (c *Coupon) IsRedeemableAt(t time.Time) bool {
	return !t.After(c.expiresAt)
}

// ValidateRedemption checks everything the checkout collaborator must verify
// before applying the coupon: expiry, customer scope, and the first-purchase
// restriction.
func (c *Coupon) ValidateRedemption(t time.Time, customerID uuid.UUID, completedOrders int) error {
	if !c.IsRedeemableAt(t) {
		return ErrCouponExpired
	}
	if c.customerID != nil && *c.customerID != customerID {
		return ErrWrongCustomer
	}
	if c.firstPurchaseOnly && completedOrders > 0 {
		return ErrFirstPurchase
	}
	return nil
}

func (c *Coupon) ApplyDiscount(basePriceCents int64) int64 {
	return c.discount.Apply(basePriceCents)
}

func (c *Coupon) ID() uuid.UUID          { return c.id }
func (c *Coupon) Code() Code             { return c.code }
func (c *Coupon) Discount() Discount     { return c.discount }
func (c *Coupon) CustomerID() *uuid.UUID { return c.customerID }
func (c *Coupon) FirstPurchaseOnly() bool { return c.firstPurchaseOnly }
func (c *Coupon) IssuedAt() time.Time    { return c.issuedAt }
func (c *Coupon) ExpiresAt() time.Time   { return c.expiresAt }
