package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/infra"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// ApplyPurchase credits loyalty points as an atomic increment so concurrent
// purchase events for the same customer never lose updates. The credit is
// ledgered against the event first; if the ledger row already exists the
// increment is skipped, so a retried handler never double-credits.
func (r *CustomerRepository) ApplyPurchase(ctx context.Context, eventID, customerID uuid.UUID, points int32, purchasedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return infra.WrapRepoErr("failed to begin purchase transaction", err)
	}
	defer tx.Rollback(ctx)

	const ledgerQuery = `
		INSERT INTO loyalty_ledger (event_id, customer_id, points, purchased_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`

	ledgerTag, err := tx.Exec(ctx, ledgerQuery, eventID, customerID, points, purchasedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to ledger loyalty credit", err)
	}
	if ledgerTag.RowsAffected() == 0 {
		// Already credited by an earlier attempt.
		return tx.Commit(ctx)
	}

	const query = `
		UPDATE customers
		SET loyalty_points = loyalty_points + $2,
		    total_purchases = total_purchases + 1,
		    last_purchase_at = GREATEST(COALESCE(last_purchase_at, 'epoch'::timestamptz), $3),
		    updated_at = now()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, customerID, points, purchasedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to apply purchase to customer", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("customer not found", nil, infra.KindNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit purchase transaction", err)
	}
	return nil
}
