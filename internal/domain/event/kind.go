package event

import "errors"

var ErrUnknownKind = errors.New("unknown event kind")

// Kind tags a business occurrence that drives the automation pipeline.
type Kind string

const (
	KindPurchase             Kind = "purchase"
	KindCartAbandoned        Kind = "cart_abandoned"
	KindNewCustomer          Kind = "new_customer"
	KindCustomerInactive     Kind = "customer_inactive"
	KindBirthday             Kind = "birthday"
	KindLowStock             Kind = "low_stock"
	KindRelatedProductsNudge Kind = "related_products_nudge"
)

// externalKinds are the kinds external collaborators may submit.
// KindRelatedProductsNudge is synthetic: only the scheduler sweep emits it.
var externalKinds = map[Kind]bool{
	KindPurchase:         true,
	KindCartAbandoned:    true,
	KindNewCustomer:      true,
	KindCustomerInactive: true,
	KindBirthday:         true,
	KindLowStock:         true,
}

var allKinds = map[Kind]bool{
	KindPurchase:             true,
	KindCartAbandoned:        true,
	KindNewCustomer:          true,
	KindCustomerInactive:     true,
	KindBirthday:             true,
	KindLowStock:             true,
	KindRelatedProductsNudge: true,
}

func NewKind(s string) (Kind, error) {
	k := Kind(s)
	if !allKinds[k] {
		return "", ErrUnknownKind
	}
	return k, nil
}

func NewExternalKind(s string) (Kind, error) {
	k := Kind(s)
	if !externalKinds[k] {
		return "", ErrUnknownKind
	}
	return k, nil
}

func (k Kind) String() string {
	return string(k)
}
