//go:build unit

package schedule_test

import (
	"encoding/json"
	"testing"
	"time"

	"shop-automation/internal/domain/event"
	"shop-automation/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nudgeContext(t *testing.T, customerID, orderID uuid.UUID) []byte {
	t.Helper()
	raw, err := json.Marshal(event.RelatedProductsNudgePayload{CustomerID: customerID, OrderID: orderID})
	require.NoError(t, err)
	return raw
}

func TestNewScheduledAction(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sourceEventID := uuid.New()
	customerID := uuid.New()
	ctx := nudgeContext(t, customerID, uuid.New())

	t.Run("basic success case", func(t *testing.T) {
		sa, err := schedule.NewScheduledAction(schedule.ActionRelatedProductsNudge, sourceEventID, customerID, ctx, now.Add(72*time.Hour), now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, sa.ID())
		assert.Equal(t, schedule.ActionRelatedProductsNudge, sa.Action())
		assert.Equal(t, sourceEventID, sa.SourceEventID())
		assert.Equal(t, customerID, sa.CustomerID())
		assert.False(t, sa.Executed())
	})

	t.Run("must execute in the future", func(t *testing.T) {
		_, err := schedule.NewScheduledAction(schedule.ActionRelatedProductsNudge, sourceEventID, customerID, ctx, now, now)
		assert.ErrorIs(t, err, schedule.ErrExecuteAtInPast)

		_, err = schedule.NewScheduledAction(schedule.ActionRelatedProductsNudge, sourceEventID, customerID, ctx, now.Add(-time.Hour), now)
		assert.ErrorIs(t, err, schedule.ErrExecuteAtInPast)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		_, err := schedule.NewScheduledAction(schedule.Action("price_drop_alert"), sourceEventID, customerID, ctx, now.Add(time.Hour), now)
		assert.ErrorIs(t, err, schedule.ErrUnknownAction)

		_, err = schedule.NewAction("price_drop_alert")
		assert.ErrorIs(t, err, schedule.ErrUnknownAction)
	})
}

func TestIsDueAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	executeAt := now.Add(72 * time.Hour)
	customerID := uuid.New()
	ctx := nudgeContext(t, customerID, uuid.New())

	sa, err := schedule.NewScheduledAction(schedule.ActionRelatedProductsNudge, uuid.New(), customerID, ctx, executeAt, now)
	require.NoError(t, err)

	assert.False(t, sa.IsDueAt(now))
	assert.False(t, sa.IsDueAt(executeAt.Add(-time.Second)))
	assert.True(t, sa.IsDueAt(executeAt))
	assert.True(t, sa.IsDueAt(executeAt.Add(time.Hour)))

	executed := schedule.Restore(sa.ID(), sa.Action(), sa.SourceEventID(), sa.CustomerID(), sa.Context(), sa.ExecuteAt(), true)
	assert.False(t, executed.IsDueAt(executeAt.Add(time.Hour)))
}

func TestSyntheticEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	customerID := uuid.New()
	orderID := uuid.New()

	t.Run("firing produces the synthetic event with the stored context", func(t *testing.T) {
		sa, err := schedule.NewScheduledAction(
			schedule.ActionRelatedProductsNudge, uuid.New(), customerID, nudgeContext(t, customerID, orderID), now.Add(72*time.Hour), now)
		require.NoError(t, err)

		firedAt := now.Add(73 * time.Hour)
		evt, err := sa.SyntheticEvent(firedAt)
		require.NoError(t, err)

		assert.Equal(t, event.KindRelatedProductsNudge, evt.Kind())
		assert.Equal(t, firedAt, evt.OccurredAt())

		payload, err := evt.DecodedPayload()
		require.NoError(t, err)
		nudge, ok := payload.(*event.RelatedProductsNudgePayload)
		require.True(t, ok)
		assert.Equal(t, customerID, nudge.CustomerID)
		assert.Equal(t, orderID, nudge.OrderID)
	})

	t.Run("corrupted context fails to fire", func(t *testing.T) {
		sa := schedule.Restore(uuid.New(), schedule.ActionRelatedProductsNudge, uuid.New(), customerID, []byte(`{"customer_id":`), now, false)
		_, err := sa.SyntheticEvent(now)
		assert.Error(t, err)
	})
}
