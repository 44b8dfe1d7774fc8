package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/internal/service"
	"github.com/fairyhunter13/storefront-cart/pkg/database"
)

// usageOrderConstraint makes (coupon_id, order_id) unique in the ledger.
const usageOrderConstraint = "coupon_usages_coupon_order_key"

const countUsesQuery = `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`

// UsageRepository provides data access for the append-only coupon usage ledger.
type UsageRepository struct {
	pool PoolInterface
}

// NewUsageRepository creates a new UsageRepository with the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// NewUsageRepositoryWithPool creates a new UsageRepository with a custom pool interface.
// This is primarily used for testing.
func NewUsageRepositoryWithPool(pool PoolInterface) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// CountUsesForUser returns how many times userID has used the coupon.
func (r *UsageRepository) CountUsesForUser(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	return countUses(ctx, r.pool, couponID, userID)
}

// CountUsesForUserTx is CountUsesForUser inside a transaction.
func (r *UsageRepository) CountUsesForUserTx(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, userID string) (int, error) {
	return countUses(ctx, tx, couponID, userID)
}

// RecordUsage appends a usage entry within a transaction.
// Returns service.ErrAlreadyRedeemed if the order already used this coupon.
func (r *UsageRepository) RecordUsage(ctx context.Context, tx database.TxQuerier, usage model.CouponUsage) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO coupon_usages (id, coupon_id, user_id, order_id, discount_applied, used_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		usage.ID, usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountApplied, usage.UsedAt)
	if err != nil {
		if database.IsUniqueViolation(err, usageOrderConstraint) {
			return service.ErrAlreadyRedeemed
		}
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func countUses(ctx context.Context, q PoolInterface, couponID uuid.UUID, userID string) (int, error) {
	var count int
	if err := q.QueryRow(ctx, countUsesQuery, couponID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count uses of %s by %s: %w", couponID, userID, err)
	}
	return count, nil
}
