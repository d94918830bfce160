package automation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shop-automation/internal/domain/coupon"
	"shop-automation/internal/domain/event"
	"shop-automation/internal/domain/schedule"
)

// Collaborator contracts consumed by the engine. Implementations live in
// internal/infra/repository; tests substitute in-memory fakes.

type EventStore interface {
	Append(ctx context.Context, evt *event.Event) error
	ListPending(ctx context.Context, limit int32) ([]*event.Event, error)
	// MarkProcessed flips processed false->true. It reports false when the
	// event was already marked, which keeps side effects at-most-once across
	// concurrent sweeps.
	MarkProcessed(ctx context.Context, id uuid.UUID) (bool, error)
	RecordFailure(ctx context.Context, id uuid.UUID, handlerErr string) error
}

type CouponStore interface {
	// Insert persists an issued coupon. Inserting an already-issued code is
	// a no-op, so retried handlers never double-issue.
	Insert(ctx context.Context, c *coupon.Coupon) error
}

type CustomerStore interface {
	// ApplyPurchase atomically increments loyalty points and the purchase
	// counter and advances last_purchase_at. The credit is ledgered against
	// eventID: applying the same event again is a no-op, so a retried handler
	// never double-credits.
	ApplyPurchase(ctx context.Context, eventID, customerID uuid.UUID, points int32, purchasedAt time.Time) error
}

type OrderStore interface {
	HasCompletedOrderSince(ctx context.Context, customerID uuid.UUID, since time.Time) (bool, error)
}

// OutboundMessage is handed to the (external) delivery collaborator once
// enqueued; the engine only appends. EventID names the event that produced
// the message and keys deduplication.
type OutboundMessage struct {
	EventID     uuid.UUID
	RecipientID uuid.UUID
	Subject     string
	Template    string
	Data        map[string]any
	EnqueuedAt  time.Time
}

type OutboundQueue interface {
	// Enqueue deduplicates on (event, recipient, template): a retried handler
	// re-enqueuing the same message is a no-op.
	Enqueue(ctx context.Context, msg OutboundMessage) error
}

type ScheduleStore interface {
	// Insert deduplicates on the action's source event.
	Insert(ctx context.Context, sa *schedule.ScheduledAction) error
	ListDue(ctx context.Context, now time.Time, limit int32) ([]*schedule.ScheduledAction, error)
	// Claim flips executed false->true and reports whether this caller won.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
}

type AdminTask struct {
	SourceEventID uuid.UUID
	Title         string
	Description   string
	Kind          string
	Priority      string
	AssignedRole  string
	CreatedAt     time.Time
}

type AdminTaskStore interface {
	// Insert deduplicates on the task's source event.
	Insert(ctx context.Context, task AdminTask) error
}

type AdminUser struct {
	ID    uuid.UUID
	Email string
}

type UserDirectory interface {
	// ListAdmins returns at most limit administrator accounts. Fan-out is
	// bounded at admin-population scale.
	ListAdmins(ctx context.Context, limit int32) ([]AdminUser, error)
}
