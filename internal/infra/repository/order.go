package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/infra"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// HasCompletedOrderSince backs the cart-recovery guard condition.
func (r *OrderRepository) HasCompletedOrderSince(ctx context.Context, customerID uuid.UUID, since time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE customer_id = $1 AND status = 'completed' AND created_at >= $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, customerID, since).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check completed orders", err)
	}
	return exists, nil
}
