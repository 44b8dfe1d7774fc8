package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	IncrementUsesCount(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID) error
}

// UsageRepositoryInterface defines the interface for the coupon usage ledger.
type UsageRepositoryInterface interface {
	CountUsesForUser(ctx context.Context, couponID uuid.UUID, userID string) (int, error)
	CountUsesForUserTx(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, userID string) (int, error)
	RecordUsage(ctx context.Context, tx database.TxQuerier, usage model.CouponUsage) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService provides business logic for coupon validation and redemption.
type CouponService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	usageRepo  UsageRepositoryInterface
	now        func() time.Time
}

// NewCouponService creates a new CouponService with the given pool and repositories.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, usageRepo UsageRepositoryInterface) *CouponService {
	return NewCouponServiceWithTxBeginner(pool, couponRepo, usageRepo)
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, usageRepo UsageRepositoryInterface) *CouponService {
	return &CouponService{
		pool:       pool,
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for validity checks.
func (s *CouponService) SetClock(now func() time.Time) {
	s.now = now
}

// Create creates a new coupon from the request.
// Returns ErrCouponExists if the code is already taken.
// Returns ErrInvalidRequest if request data is nil or inconsistent.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil || req.DiscountValue == nil {
		return nil, ErrInvalidRequest
	}

	coupon := &model.Coupon{
		ID:             uuid.New(),
		Code:           model.CanonicalCouponCode(req.Code),
		DiscountType:   req.DiscountType,
		DiscountValue:  *req.DiscountValue,
		MinOrderAmount: decimal.Zero,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: 1,
		StartsAt:       s.now(),
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
		Scope:          model.ScopeAll,
		ScopeTargetIDs: req.ScopeTargetIDs,
	}
	if req.MinOrderAmount != nil {
		coupon.MinOrderAmount = *req.MinOrderAmount
	}
	if req.MaxUsesPerUser != nil {
		coupon.MaxUsesPerUser = *req.MaxUsesPerUser
	}
	if req.StartsAt != nil {
		coupon.StartsAt = *req.StartsAt
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.Scope != "" {
		coupon.Scope = req.Scope
	}

	if coupon.Code == "" {
		return nil, ErrInvalidRequest
	}
	if coupon.DiscountType == model.DiscountPercentage && coupon.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: percentage discount above 100", ErrInvalidRequest)
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(coupon.StartsAt) {
		return nil, fmt.Errorf("%w: expires_at before starts_at", ErrInvalidRequest)
	}
	if coupon.Scope != model.ScopeAll && len(coupon.ScopeTargetIDs) == 0 {
		return nil, fmt.Errorf("%w: scope %s needs target ids", ErrInvalidRequest, coupon.Scope)
	}

	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		if errors.Is(err, ErrCouponExists) {
			return nil, ErrCouponExists
		}
		return nil, storageErr("insert coupon", err)
	}
	return coupon, nil
}

// GetByCode retrieves a coupon with its current eligibility flags.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.CouponResponse, error) {
	coupon, err := s.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	return &model.CouponResponse{
		Coupon:           *coupon,
		WithinDateRange:  coupon.IsWithinDateRange(s.now()),
		HasRemainingUses: coupon.HasRemainingUses(),
	}, nil
}

// Lookup finds a coupon by code, case-insensitively.
// Returns nil, nil when no coupon has the code.
func (s *CouponService) Lookup(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, model.CanonicalCouponCode(code))
	if err != nil {
		return nil, storageErr("get coupon", err)
	}
	return coupon, nil
}

// Validate checks whether userID may apply code to an order of orderAmount.
// An ineligible coupon is reported in the result, not as an error.
func (s *CouponService) Validate(ctx context.Context, userID, code string, orderAmount decimal.Decimal) (model.ValidationResult, error) {
	coupon, err := s.Lookup(ctx, code)
	if err != nil {
		return model.ValidationResult{}, err
	}
	if coupon == nil {
		return model.ValidationResult{Valid: false, Message: model.MsgCouponNotFound}, nil
	}
	return s.Evaluate(ctx, *coupon, userID, orderAmount)
}

// Evaluate validates an already loaded coupon for userID.
func (s *CouponService) Evaluate(ctx context.Context, coupon model.Coupon, userID string, orderAmount decimal.Decimal) (model.ValidationResult, error) {
	uses, err := s.usageRepo.CountUsesForUser(ctx, coupon.ID, userID)
	if err != nil {
		return model.ValidationResult{}, storageErr("count coupon uses", err)
	}
	return coupon.Validate(orderAmount, uses, s.now()), nil
}

// Redeem validates and consumes a coupon for an order.
// The coupon row is locked (SELECT FOR UPDATE) for the whole transaction, so
// the usage ledger append and the uses_count increment cannot interleave
// with another redemption of the same coupon.
// Returns:
//   - a failed result (nil error) if the coupon is unknown or ineligible
//   - ErrAlreadyRedeemed if the order already used this coupon
func (s *CouponService) Redeem(ctx context.Context, userID, code string, orderID uuid.UUID, orderAmount decimal.Decimal) (model.ValidationResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.ValidationResult{}, storageErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the coupon row
	coupon, err := s.couponRepo.GetByCodeForUpdate(ctx, tx, model.CanonicalCouponCode(code))
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return model.ValidationResult{Valid: false, Message: model.MsgCouponNotFound}, nil
		}
		return model.ValidationResult{}, storageErr("get coupon for update", err)
	}

	// 2. Validate against the ledger as seen inside the transaction
	uses, err := s.usageRepo.CountUsesForUserTx(ctx, tx, coupon.ID, userID)
	if err != nil {
		return model.ValidationResult{}, storageErr("count coupon uses", err)
	}
	now := s.now()
	result := coupon.Validate(orderAmount, uses, now)
	if !result.Valid {
		return result, nil
	}

	// 3. Append to the ledger (UNIQUE (coupon_id, order_id) catches replays)
	err = s.usageRepo.RecordUsage(ctx, tx, model.CouponUsage{
		ID:              uuid.New(),
		CouponID:        coupon.ID,
		UserID:          userID,
		OrderID:         orderID,
		DiscountApplied: *result.Discount,
		UsedAt:          now,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRedeemed) {
			return model.ValidationResult{}, ErrAlreadyRedeemed
		}
		return model.ValidationResult{}, storageErr("record coupon usage", err)
	}

	// 4. Bump the global counter
	if err := s.couponRepo.IncrementUsesCount(ctx, tx, coupon.ID); err != nil {
		return model.ValidationResult{}, storageErr("increment uses count", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.ValidationResult{}, storageErr("commit redemption", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("coupon_code", coupon.Code).
		Str("order_id", orderID.String()).
		Str("discount", result.Discount.String()).
		Msg("coupon redeemed")

	return result, nil
}
