//go:build unit

package automation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-automation/internal/automation"
	"shop-automation/internal/domain/event"
)

func defaultProcessorConfig() automation.ProcessorConfig {
	return automation.ProcessorConfig{
		Workers:        4,
		HandlerTimeout: time.Second,
		BatchSize:      100,
	}
}

func appendEvent(t *testing.T, w *world, kind event.Kind, payload event.Payload, occurredAt time.Time) *event.Event {
	t.Helper()
	evt, err := event.NewEvent(kind, payload, occurredAt)
	require.NoError(t, err)
	require.NoError(t, w.events.Append(context.Background(), evt))
	return evt
}

func TestProcessPending(t *testing.T) {
	t.Run("processes the backlog and marks events", func(t *testing.T) {
		w := newWorld(testNow)
		p := w.processor(defaultProcessorConfig())

		evt := appendEvent(t, w, event.KindNewCustomer, &event.NewCustomerPayload{CustomerID: uuid.New()}, testNow)

		report, err := p.ProcessPending(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Succeeded)
		assert.Equal(t, 0, report.Failed)
		assert.True(t, w.events.record(evt.ID()).processed)
		assert.Len(t, w.coupons.all(), 1)
	})

	t.Run("empty backlog yields an empty report", func(t *testing.T) {
		w := newWorld(testNow)
		p := w.processor(defaultProcessorConfig())

		report, err := p.ProcessPending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Total())
	})

	t.Run("second run causes no duplicate side effects", func(t *testing.T) {
		w := newWorld(testNow)
		p := w.processor(defaultProcessorConfig())

		appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow)

		_, err := p.ProcessPending(context.Background())
		require.NoError(t, err)
		report, err := p.ProcessPending(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 0, report.Total())
		assert.Len(t, w.coupons.all(), 1)
		assert.Len(t, w.outbound.byTemplate("birthday"), 1)
	})
}

func TestProcessPendingRetryAfterPartialFailure(t *testing.T) {
	w := newWorld(testNow)
	p := w.processor(defaultProcessorConfig())
	customerID := uuid.New()

	appendEvent(t, w, event.KindPurchase, &event.PurchasePayload{
		CustomerID:      customerID,
		OrderID:         uuid.New(),
		OrderTotalCents: 5000,
	}, testNow)

	// The schedule insert fails once, after the confirmation and the loyalty
	// credit committed; the event stays pending.
	w.schedules.failNext = errors.New("schedule storage down")
	report, err := p.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, w.events.pendingCount())

	report, err = p.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, w.events.pendingCount())

	// The retry converges instead of re-applying the committed side effects.
	assert.Equal(t, int32(5), w.customers.pointsFor(customerID))
	assert.Len(t, w.outbound.byTemplate("purchase_confirmation"), 1)
	assert.Len(t, w.schedules.all(), 1)
}

func TestProcessOne(t *testing.T) {
	t.Run("dispatches and wins the marker", func(t *testing.T) {
		w := newWorld(testNow)
		p := w.processor(defaultProcessorConfig())
		evt := appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow)

		marked, err := p.ProcessOne(context.Background(), evt)
		require.NoError(t, err)
		assert.True(t, marked)
		assert.True(t, w.events.record(evt.ID()).processed)
	})

	t.Run("an already marked event is not won again", func(t *testing.T) {
		w := newWorld(testNow)
		p := w.processor(defaultProcessorConfig())
		evt := appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow)

		won, err := w.events.MarkProcessed(context.Background(), evt.ID())
		require.NoError(t, err)
		require.True(t, won)

		marked, err := p.ProcessOne(context.Background(), evt)
		require.NoError(t, err)
		assert.False(t, marked)
	})

	t.Run("contains handler panics", func(t *testing.T) {
		w := newWorld(testNow)
		w.registry.Register(event.KindBirthday, func(_ context.Context, _ *event.Event) error {
			panic("handler bug")
		})
		p := w.processor(defaultProcessorConfig())
		evt := appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow)

		_, err := p.ProcessOne(context.Background(), evt)
		require.Error(t, err)
		assert.False(t, w.events.record(evt.ID()).processed)
		assert.Equal(t, int32(1), w.events.record(evt.ID()).attempts)
	})
}

func TestProcessPendingFailureIsolation(t *testing.T) {
	w := newWorld(testNow)

	// One poisoned handler; other kinds keep their real handlers.
	boom := errors.New("boom")
	w.registry.Register(event.KindCartAbandoned, func(_ context.Context, _ *event.Event) error {
		return boom
	})

	p := w.processor(defaultProcessorConfig())

	good1 := appendEvent(t, w, event.KindNewCustomer, &event.NewCustomerPayload{CustomerID: uuid.New()}, testNow)
	bad := appendEvent(t, w, event.KindCartAbandoned, &event.CartAbandonedPayload{CustomerID: uuid.New()}, testNow.Add(time.Second))
	good2 := appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow.Add(2*time.Second))

	report, err := p.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	assert.True(t, w.events.record(good1.ID()).processed)
	assert.True(t, w.events.record(good2.ID()).processed)

	// The failed event stays pending with its failure recorded.
	failedRec := w.events.record(bad.ID())
	assert.False(t, failedRec.processed)
	assert.Equal(t, int32(1), failedRec.attempts)
	assert.Contains(t, failedRec.lastError, "boom")
	assert.Equal(t, 1, w.events.pendingCount())
}

func TestProcessPendingUnknownKind(t *testing.T) {
	w := newWorld(testNow)
	p := w.processor(defaultProcessorConfig())

	// Restored from storage with a kind no handler knows.
	unknown := event.Restore(uuid.New(), event.Kind("price_drop"), []byte(`{}`), testNow, false, 0, nil)
	require.NoError(t, w.events.Append(context.Background(), unknown))

	report, err := p.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, automation.OutcomeSkipped, report.Outcomes[0].Status)

	// Terminal skip: the event must not reappear in the next sweep.
	assert.True(t, w.events.record(unknown.ID()).processed)
	assert.Equal(t, 0, w.events.pendingCount())
}

func TestProcessPendingHandlerTimeout(t *testing.T) {
	w := newWorld(testNow)
	w.registry.Register(event.KindBirthday, func(ctx context.Context, _ *event.Event) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	cfg := defaultProcessorConfig()
	cfg.HandlerTimeout = 10 * time.Millisecond
	p := w.processor(cfg)

	evt := appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow)

	report, err := p.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.False(t, w.events.record(evt.ID()).processed)
	assert.Contains(t, report.Outcomes[0].Error, "timed out")
}

func TestProcessPendingHandlerPanic(t *testing.T) {
	w := newWorld(testNow)
	w.registry.Register(event.KindBirthday, func(_ context.Context, _ *event.Event) error {
		panic("handler bug")
	})
	p := w.processor(defaultProcessorConfig())

	evt := appendEvent(t, w, event.KindBirthday, &event.BirthdayPayload{CustomerID: uuid.New()}, testNow)

	report, err := p.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.False(t, w.events.record(evt.ID()).processed)
}

func TestConcurrentPurchasesKeepLoyaltyConsistent(t *testing.T) {
	w := newWorld(testNow)
	customerID := uuid.New()

	const orders = 20
	var expected int32
	for i := range orders {
		total := int64(1000 * (i + 1))
		expected += int32(total / 1000)
		appendEvent(t, w, event.KindPurchase, &event.PurchasePayload{
			CustomerID:      customerID,
			OrderID:         uuid.New(),
			OrderTotalCents: total,
		}, testNow.Add(time.Duration(i)*time.Millisecond))
	}

	cfg := defaultProcessorConfig()
	cfg.Workers = 8
	p := w.processor(cfg)

	report, err := p.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, orders, report.Succeeded)
	assert.Equal(t, expected, w.customers.pointsFor(customerID))
	assert.Len(t, w.outbound.byTemplate("purchase_confirmation"), orders)
}
