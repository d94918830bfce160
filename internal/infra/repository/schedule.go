package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/domain/schedule"
	"shop-automation/internal/infra"
)

type ScheduledActionRepository struct {
	pool *pgxpool.Pool
}

func NewScheduledActionRepository(pool *pgxpool.Pool) *ScheduledActionRepository {
	return &ScheduledActionRepository{pool: pool}
}

// Insert dedups on the source event: a handler retrying after a partial
// failure re-inserts the same action and the conflict clause swallows it.
func (r *ScheduledActionRepository) Insert(ctx context.Context, sa *schedule.ScheduledAction) error {
	const query = `
		INSERT INTO scheduled_actions (id, action, source_event_id, customer_id, context, execute_at, executed)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		ON CONFLICT (source_event_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, sa.ID(), sa.Action().String(), sa.SourceEventID(), sa.CustomerID(), sa.Context(), sa.ExecuteAt())
	if err != nil {
		return infra.WrapRepoErr("failed to insert scheduled action", err)
	}
	return nil
}

func (r *ScheduledActionRepository) ListDue(ctx context.Context, now time.Time, limit int32) ([]*schedule.ScheduledAction, error) {
	const query = `
		SELECT id, action, source_event_id, customer_id, context, execute_at, executed
		FROM scheduled_actions
		WHERE execute_at <= $1 AND executed = false
		ORDER BY execute_at
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list due scheduled actions", err)
	}
	defer rows.Close()

	var actions []*schedule.ScheduledAction
	for rows.Next() {
		var (
			id            uuid.UUID
			action        string
			sourceEventID uuid.UUID
			customerID    uuid.UUID
			rawCtx        []byte
			executeAt     time.Time
			executed      bool
		)
		if err := rows.Scan(&id, &action, &sourceEventID, &customerID, &rawCtx, &executeAt, &executed); err != nil {
			return nil, infra.WrapRepoErr("failed to scan scheduled action row", err)
		}
		actions = append(actions, schedule.Restore(id, schedule.Action(action), sourceEventID, customerID, rawCtx, executeAt, executed))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read due scheduled actions", err)
	}
	return actions, nil
}

// Claim is the single-fire guard: only the sweep that flips executed wins.
func (r *ScheduledActionRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
		UPDATE scheduled_actions SET executed = true, updated_at = now()
		WHERE id = $1 AND executed = false`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim scheduled action", err)
	}
	return tag.RowsAffected() > 0, nil
}
