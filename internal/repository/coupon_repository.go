package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/internal/service"
	"github.com/fairyhunter13/storefront-cart/pkg/database"
)

const couponColumns = `id, code, discount_type, discount_value, min_order_amount, max_uses, uses_count,
	max_uses_per_user, starts_at, expires_at, is_active, scope, scope_target_ids, created_at`

// couponCodeConstraint is the unique constraint on coupons.code.
const couponCodeConstraint = "coupons_code_key"

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	targets := coupon.ScopeTargetIDs
	if targets == nil {
		targets = []int64{}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value, min_order_amount, max_uses,
			max_uses_per_user, starts_at, expires_at, is_active, scope, scope_target_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		coupon.ID,
		coupon.Code,
		string(coupon.DiscountType),
		coupon.DiscountValue,
		coupon.MinOrderAmount,
		coupon.MaxUses,
		coupon.MaxUsesPerUser,
		coupon.StartsAt,
		coupon.ExpiresAt,
		coupon.IsActive,
		string(coupon.Scope),
		targets,
	)
	if err != nil {
		if database.IsUniqueViolation(err, couponCodeConstraint) {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its canonical code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// GetByCodeForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return coupon, nil
}

// IncrementUsesCount adds one to uses_count of a coupon.
// Must be called within a transaction after locking the row.
func (r *CouponRepository) IncrementUsesCount(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID) error {
	query := `UPDATE coupons SET uses_count = uses_count + 1 WHERE id = $1`

	if _, err := tx.Exec(ctx, query, couponID); err != nil {
		return fmt.Errorf("increment uses count for %s: %w", couponID, err)
	}
	return nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		coupon       model.Coupon
		discountType string
		scope        string
	)
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&discountType,
		&coupon.DiscountValue,
		&coupon.MinOrderAmount,
		&coupon.MaxUses,
		&coupon.UsesCount,
		&coupon.MaxUsesPerUser,
		&coupon.StartsAt,
		&coupon.ExpiresAt,
		&coupon.IsActive,
		&scope,
		&coupon.ScopeTargetIDs,
		&coupon.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	coupon.DiscountType = model.DiscountType(discountType)
	coupon.Scope = model.Scope(scope)
	return &coupon, nil
}
