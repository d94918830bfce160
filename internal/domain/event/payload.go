package event

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidPayload = errors.New("invalid event payload")

// Payload is the typed content of an event. Each Kind carries exactly one
// payload type; DecodePayload is the single place the mapping lives.
type Payload interface {
	Validate() error
}

type PurchasePayload struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	OrderID         uuid.UUID `json:"order_id"`
	OrderTotalCents int64     `json:"order_total_cents"`
}

func (p PurchasePayload) Validate() error {
	if p.CustomerID == uuid.Nil || p.OrderID == uuid.Nil {
		return ErrInvalidPayload
	}
	if p.OrderTotalCents < 0 {
		return ErrInvalidPayload
	}
	return nil
}

type CartAbandonedPayload struct {
	CustomerID uuid.UUID `json:"customer_id"`
	CartID     uuid.UUID `json:"cart_id"`
	ItemCount  int       `json:"item_count"`
}

func (p CartAbandonedPayload) Validate() error {
	if p.CustomerID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

type NewCustomerPayload struct {
	CustomerID uuid.UUID `json:"customer_id"`
}

func (p NewCustomerPayload) Validate() error {
	if p.CustomerID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

type CustomerInactivePayload struct {
	CustomerID uuid.UUID `json:"customer_id"`
	// InactiveDays is informational; the 30-day detection lives in the producer.
	InactiveDays int `json:"inactive_days"`
}

func (p CustomerInactivePayload) Validate() error {
	if p.CustomerID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

type BirthdayPayload struct {
	CustomerID uuid.UUID `json:"customer_id"`
}

func (p BirthdayPayload) Validate() error {
	if p.CustomerID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

type LowStockPayload struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Stock       int       `json:"stock"`
	Threshold   int       `json:"threshold"`
}

func (p LowStockPayload) Validate() error {
	if p.ProductID == uuid.Nil || p.ProductName == "" {
		return ErrInvalidPayload
	}
	if p.Stock < 0 {
		return ErrInvalidPayload
	}
	return nil
}

type RelatedProductsNudgePayload struct {
	CustomerID uuid.UUID `json:"customer_id"`
	OrderID    uuid.UUID `json:"order_id"`
}

func (p RelatedProductsNudgePayload) Validate() error {
	if p.CustomerID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

// DecodePayload unmarshals raw JSON into the payload type for kind and
// validates it. Submissions from external collaborators go through here
// before anything is persisted.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	var p Payload
	switch kind {
	case KindPurchase:
		p = &PurchasePayload{}
	case KindCartAbandoned:
		p = &CartAbandonedPayload{}
	case KindNewCustomer:
		p = &NewCustomerPayload{}
	case KindCustomerInactive:
		p = &CustomerInactivePayload{}
	case KindBirthday:
		p = &BirthdayPayload{}
	case KindLowStock:
		p = &LowStockPayload{}
	case KindRelatedProductsNudge:
		p = &RelatedProductsNudgePayload{}
	default:
		return nil, ErrUnknownKind
	}

	if err := json.Unmarshal(raw, p); err != nil {
		return nil, ErrInvalidPayload
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// CustomerIDOf reports the customer a payload targets, when it targets one.
// The processor keys its per-customer serialization on this.
func CustomerIDOf(p Payload) (uuid.UUID, bool) {
	switch t := p.(type) {
	case *PurchasePayload:
		return t.CustomerID, true
	case *CartAbandonedPayload:
		return t.CustomerID, true
	case *NewCustomerPayload:
		return t.CustomerID, true
	case *CustomerInactivePayload:
		return t.CustomerID, true
	case *BirthdayPayload:
		return t.CustomerID, true
	case *RelatedProductsNudgePayload:
		return t.CustomerID, true
	default:
		return uuid.Nil, false
	}
}

func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, ErrInvalidPayload
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}
