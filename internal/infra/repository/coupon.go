package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/domain/coupon"
	"shop-automation/internal/infra"
)

type CouponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert deduplicates on the coupon code: handler retries regenerate the same
// deterministic code, and the conflict clause swallows the duplicate.
func (r *CouponRepository) Insert(ctx context.Context, c *coupon.Coupon) error {
	const query = `
		INSERT INTO coupons (id, code, percent_off, customer_id, first_purchase_only, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		c.ID(),
		c.Code().String(),
		c.Discount().PercentOff(),
		c.CustomerID(),
		c.FirstPurchaseOnly(),
		c.IssuedAt(),
		c.ExpiresAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert coupon", err)
	}
	return nil
}
