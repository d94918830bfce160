package coupon

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidCouponCode      = errors.New("invalid coupon code format")
	ErrInvalidDiscountPercent = errors.New("percentage discount must be between 1 and 100")
)

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

type Code string

func NewCode(code string) (Code, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if !couponCodeRegex.MatchString(code) {
		return Code(""), ErrInvalidCouponCode
	}
	return Code(code), nil
}

// NewIssuedCode derives a code deterministically from the event kind prefix
// and the event identity: a retried handler regenerates the same code for the
// same event, while distinct events never share one.
func NewIssuedCode(prefix string, eventID uuid.UUID) (Code, error) {
	return NewCode(fmt.Sprintf("%s%X", prefix, eventID[:5]))
}

func (c Code) String() string {
	return string(c)
}

type Discount struct {
	percentOff int
}

func NewPercentageDiscount(percentOff int) (Discount, error) {
	if percentOff < 1 || percentOff > 100 {
		return Discount{}, ErrInvalidDiscountPercent
	}
	return Discount{percentOff: percentOff}, nil
}

func (d Discount) PercentOff() int {
	return d.percentOff
}

func (d Discount) Apply(basePriceCents int64) int64 {
	discountAmount := int64(float64(basePriceCents) * (float64(d.percentOff) / 100.0))
	result := basePriceCents - discountAmount
	if result < 0 {
		return 0
	}
	return result
}
