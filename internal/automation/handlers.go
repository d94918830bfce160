package automation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shop-automation/internal/domain/coupon"
	"shop-automation/internal/domain/customer"
	"shop-automation/internal/domain/event"
	"shop-automation/internal/domain/schedule"
	"shop-automation/internal/pkg/clock"
	"shop-automation/internal/pkg/errs"
)

const (
	relatedProductsDelay = 72 * time.Hour
	recentOrderWindow    = 24 * time.Hour

	cartRecoveryPercent  = 10
	cartRecoveryValidity = 7 * 24 * time.Hour

	welcomePercent  = 15
	welcomeValidity = 30 * 24 * time.Hour

	winBackPercent  = 20
	winBackValidity = 14 * 24 * time.Hour

	birthdayPercent  = 25
	birthdayValidity = 7 * 24 * time.Hour

	adminFanOutLimit = 200
)

// couponPrefixes feed the deterministic code derivation per event kind.
var couponPrefixes = map[event.Kind]string{
	event.KindCartAbandoned:    "CART",
	event.KindNewCustomer:      "WELCOME",
	event.KindCustomerInactive: "WINBACK",
	event.KindBirthday:         "BDAY",
}

// Handlers composes the three emitters (outbound queue, coupon store,
// scheduler) plus the customer/order/admin collaborators into one handler
// per event kind.
type Handlers struct {
	coupons   CouponStore
	customers CustomerStore
	orders    OrderStore
	outbound  OutboundQueue
	schedules ScheduleStore
	tasks     AdminTaskStore
	users     UserDirectory
	clock     clock.Clock
	logger    *slog.Logger
}

func NewHandlers(
	coupons CouponStore,
	customers CustomerStore,
	orders OrderStore,
	outbound OutboundQueue,
	schedules ScheduleStore,
	tasks AdminTaskStore,
	users UserDirectory,
	clk clock.Clock,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		coupons:   coupons,
		customers: customers,
		orders:    orders,
		outbound:  outbound,
		schedules: schedules,
		tasks:     tasks,
		users:     users,
		clock:     clk,
		logger:    logger,
	}
}

// BuildRegistry wires every handler once at process start.
func BuildRegistry(h *Handlers) *Registry {
	r := NewRegistry()
	r.Register(event.KindPurchase, h.HandlePurchase)
	r.Register(event.KindCartAbandoned, h.HandleCartAbandoned)
	r.Register(event.KindNewCustomer, h.HandleNewCustomer)
	r.Register(event.KindCustomerInactive, h.HandleCustomerInactive)
	r.Register(event.KindBirthday, h.HandleBirthday)
	r.Register(event.KindLowStock, h.HandleLowStock)
	r.Register(event.KindRelatedProductsNudge, h.HandleRelatedProductsNudge)
	return r
}

// HandlePurchase confirms the order, credits loyalty, and schedules a
// related-products nudge 72h out.
func (h *Handlers) HandlePurchase(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.PurchasePayload](evt)
	if err != nil {
		return err
	}

	msg := OutboundMessage{
		EventID:     evt.ID(),
		RecipientID: payload.CustomerID,
		Subject:     "Thanks for your order",
		Template:    "purchase_confirmation",
		Data: map[string]any{
			"order_id":          payload.OrderID.String(),
			"order_total_cents": payload.OrderTotalCents,
		},
		EnqueuedAt: h.clock.Now(),
	}
	if err := h.outbound.Enqueue(ctx, msg); err != nil {
		return errs.Wrap(err, "enqueue purchase confirmation")
	}

	points := customer.LoyaltyPointsFor(payload.OrderTotalCents)
	if err := h.customers.ApplyPurchase(ctx, evt.ID(), payload.CustomerID, points, evt.OccurredAt()); err != nil {
		return errs.Wrap(err, "apply purchase to customer")
	}

	return h.scheduleNudge(ctx, evt, payload)
}

func (h *Handlers) scheduleNudge(ctx context.Context, evt *event.Event, payload *event.PurchasePayload) error {
	nudgeCtx, err := json.Marshal(event.RelatedProductsNudgePayload{
		CustomerID: payload.CustomerID,
		OrderID:    payload.OrderID,
	})
	if err != nil {
		return errs.Wrap(err, "marshal nudge context")
	}

	now := h.clock.Now()
	sa, err := schedule.NewScheduledAction(
		schedule.ActionRelatedProductsNudge,
		evt.ID(),
		payload.CustomerID,
		nudgeCtx,
		now.Add(relatedProductsDelay),
		now,
	)
	if err != nil {
		return errs.Wrap(err, "build scheduled nudge")
	}

	if err := h.schedules.Insert(ctx, sa); err != nil {
		return errs.Wrap(err, "persist scheduled nudge")
	}
	return nil
}

// HandleCartAbandoned sends a recovery message with a 10%-off coupon unless
// the customer completed an order within the last 24h (guard condition: the
// handler is then a no-op, not a failure).
func (h *Handlers) HandleCartAbandoned(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.CartAbandonedPayload](evt)
	if err != nil {
		return err
	}

	since := h.clock.Now().Add(-recentOrderWindow)
	ordered, err := h.orders.HasCompletedOrderSince(ctx, payload.CustomerID, since)
	if err != nil {
		return errs.Wrap(err, "check recent completed orders")
	}
	if ordered {
		h.logger.Debug("cart recovery skipped, recent completed order",
			"customer_id", payload.CustomerID, "event_id", evt.ID())
		return nil
	}

	c, err := h.issueCoupon(ctx, evt, payload.CustomerID, cartRecoveryPercent, cartRecoveryValidity, false)
	if err != nil {
		return err
	}

	return h.enqueueCouponMessage(ctx, evt, payload.CustomerID, "You left something behind", "cart_recovery", c)
}

// HandleNewCustomer welcomes the customer with a 15%-off coupon restricted
// to their first completed order.
func (h *Handlers) HandleNewCustomer(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.NewCustomerPayload](evt)
	if err != nil {
		return err
	}

	c, err := h.issueCoupon(ctx, evt, payload.CustomerID, welcomePercent, welcomeValidity, true)
	if err != nil {
		return err
	}

	return h.enqueueCouponMessage(ctx, evt, payload.CustomerID, "Welcome to the store", "welcome", c)
}

// HandleCustomerInactive wins back a customer flagged inactive by the
// external 30-day detector; no time math happens here.
func (h *Handlers) HandleCustomerInactive(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.CustomerInactivePayload](evt)
	if err != nil {
		return err
	}

	c, err := h.issueCoupon(ctx, evt, payload.CustomerID, winBackPercent, winBackValidity, false)
	if err != nil {
		return err
	}

	return h.enqueueCouponMessage(ctx, evt, payload.CustomerID, "We miss you", "win_back", c)
}

// HandleBirthday sends the yearly birthday offer. Per-calendar-year
// idempotency is the producer's responsibility.
func (h *Handlers) HandleBirthday(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.BirthdayPayload](evt)
	if err != nil {
		return err
	}

	c, err := h.issueCoupon(ctx, evt, payload.CustomerID, birthdayPercent, birthdayValidity, false)
	if err != nil {
		return err
	}

	return h.enqueueCouponMessage(ctx, evt, payload.CustomerID, "Happy birthday!", "birthday", c)
}

// HandleLowStock records an admin task and fans a notification out to every
// administrator account.
func (h *Handlers) HandleLowStock(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.LowStockPayload](evt)
	if err != nil {
		return err
	}

	now := h.clock.Now()
	task := AdminTask{
		SourceEventID: evt.ID(),
		Title:         "Low stock: " + payload.ProductName,
		Description:   "Stock for " + payload.ProductName + " dropped below threshold; restock required.",
		Kind:          "low_stock",
		Priority:      "high",
		AssignedRole:  "admin",
		CreatedAt:     now,
	}
	if err := h.tasks.Insert(ctx, task); err != nil {
		return errs.Wrap(err, "create low stock task")
	}

	admins, err := h.users.ListAdmins(ctx, adminFanOutLimit)
	if err != nil {
		return errs.Wrap(err, "list administrators")
	}

	for _, admin := range admins {
		msg := OutboundMessage{
			EventID:     evt.ID(),
			RecipientID: admin.ID,
			Subject:     "Low stock alert",
			Template:    "low_stock_alert",
			Data: map[string]any{
				"product_id":   payload.ProductID.String(),
				"product_name": payload.ProductName,
				"stock":        payload.Stock,
			},
			EnqueuedAt: now,
		}
		if err := h.outbound.Enqueue(ctx, msg); err != nil {
			return errs.Wrap(err, "enqueue low stock alert")
		}
	}
	return nil
}

// HandleRelatedProductsNudge processes the synthetic event the sweep emits
// for a due scheduled action.
func (h *Handlers) HandleRelatedProductsNudge(ctx context.Context, evt *event.Event) error {
	payload, err := decodeAs[*event.RelatedProductsNudgePayload](evt)
	if err != nil {
		return err
	}

	msg := OutboundMessage{
		EventID:     evt.ID(),
		RecipientID: payload.CustomerID,
		Subject:     "Picked for you",
		Template:    "related_products",
		Data: map[string]any{
			"order_id": payload.OrderID.String(),
		},
		EnqueuedAt: h.clock.Now(),
	}
	if err := h.outbound.Enqueue(ctx, msg); err != nil {
		return errs.Wrap(err, "enqueue related products nudge")
	}
	return nil
}

// issueCoupon derives the code from the event kind and identity, so a retried
// handler regenerates the same code and the store deduplicates it.
func (h *Handlers) issueCoupon(
	ctx context.Context,
	evt *event.Event,
	customerID uuid.UUID,
	percent int,
	validity time.Duration,
	firstPurchaseOnly bool,
) (*coupon.Coupon, error) {
	code, err := coupon.NewIssuedCode(couponPrefixes[evt.Kind()], evt.ID())
	if err != nil {
		return nil, errs.Wrap(err, "derive coupon code")
	}

	discount, err := coupon.NewPercentageDiscount(percent)
	if err != nil {
		return nil, errs.Wrap(err, "build discount")
	}

	issuedAt := h.clock.Now()
	c, err := coupon.NewCoupon(code, discount, &customerID, firstPurchaseOnly, issuedAt, issuedAt.Add(validity))
	if err != nil {
		return nil, errs.Wrap(err, "build coupon")
	}

	if err := h.coupons.Insert(ctx, c); err != nil {
		return nil, errs.Wrap(err, "persist coupon")
	}
	return c, nil
}

func (h *Handlers) enqueueCouponMessage(ctx context.Context, evt *event.Event, customerID uuid.UUID, subject, template string, c *coupon.Coupon) error {
	msg := OutboundMessage{
		EventID:     evt.ID(),
		RecipientID: customerID,
		Subject:     subject,
		Template:    template,
		Data: map[string]any{
			"coupon_code":      c.Code().String(),
			"discount_percent": c.Discount().PercentOff(),
			"expires_at":       c.ExpiresAt().Format(time.RFC3339),
		},
		EnqueuedAt: h.clock.Now(),
	}
	if err := h.outbound.Enqueue(ctx, msg); err != nil {
		return errs.Wrap(err, "enqueue "+template+" message")
	}
	return nil
}

func decodeAs[T event.Payload](evt *event.Event) (T, error) {
	var zero T
	payload, err := evt.DecodedPayload()
	if err != nil {
		return zero, errs.Wrap(err, "decode event payload")
	}
	typed, ok := payload.(T)
	if !ok {
		return zero, event.ErrInvalidPayload
	}
	return typed, nil
}
