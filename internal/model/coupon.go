package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is the way a coupon reduces the order amount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Scope selects which catalog entities a coupon applies to.
type Scope string

const (
	ScopeAll        Scope = "all"
	ScopeCategory   Scope = "category"
	ScopeCollection Scope = "collection"
	ScopeProduct    Scope = "product"
)

// Messages returned in a failed ValidationResult.
const (
	MsgCouponNotFound    = "Invalid coupon code"
	MsgCouponInactive    = "Coupon is inactive"
	MsgCouponNotStarted  = "Coupon is not yet active"
	MsgCouponExpired     = "Coupon has expired"
	MsgCouponUsageLimit  = "Coupon usage limit reached"
	MsgCouponAlreadyUsed = "You have already used this coupon"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a discount rule. It carries no stored status: whether it can be
// used is always recomputed from the clock and the usage counters.
type Coupon struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	MaxUses        *int            `json:"max_uses"` // nil means unlimited
	UsesCount      int             `json:"uses_count"`
	MaxUsesPerUser int             `json:"max_uses_per_user"`
	StartsAt       time.Time       `json:"starts_at"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	IsActive       bool            `json:"is_active"`
	Scope          Scope           `json:"scope"`
	ScopeTargetIDs []int64         `json:"scope_target_ids"`
	CreatedAt      time.Time       `json:"-"`
}

// CouponUsage is one redemption in the append-only usage ledger.
type CouponUsage struct {
	ID              uuid.UUID
	CouponID        uuid.UUID
	UserID          string
	OrderID         uuid.UUID
	DiscountApplied decimal.Decimal
	UsedAt          time.Time
}

// ValidationResult is the outcome of checking a coupon against an order.
// A failed check is a normal result, not an error.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Message  string           `json:"message,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
}

// CanonicalCouponCode returns the stored form of a coupon code.
func CanonicalCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWithinDateRange reports whether now lies in [StartsAt, ExpiresAt].
// The expiry instant itself is still inside the range.
func (c Coupon) IsWithinDateRange(now time.Time) bool {
	if now.Before(c.StartsAt) {
		return false
	}
	return c.ExpiresAt == nil || !c.ExpiresAt.Before(now)
}

func (c Coupon) HasRemainingUses() bool {
	return c.MaxUses == nil || c.UsesCount < *c.MaxUses
}

func (c Coupon) MeetsMinimumOrder(orderAmount decimal.Decimal) bool {
	return orderAmount.GreaterThanOrEqual(c.MinOrderAmount)
}

func (c Coupon) UserCanUse(userUsageCount int) bool {
	return userUsageCount < c.MaxUsesPerUser
}

// CalculateDiscount returns the discount for orderAmount. The result is
// always within [0, orderAmount].
func (c Coupon) CalculateDiscount(orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = orderAmount.Mul(c.DiscountValue).Div(hundred)
	case DiscountFixed:
		discount = decimal.Min(c.DiscountValue, orderAmount)
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// Validate runs the eligibility checks in a fixed order and stops at the
// first failure, so callers always see the highest-priority reason.
func (c Coupon) Validate(orderAmount decimal.Decimal, userUsageCount int, now time.Time) ValidationResult {
	switch {
	case !c.IsActive:
		return invalid(MsgCouponInactive)
	case now.Before(c.StartsAt):
		return invalid(MsgCouponNotStarted)
	case c.ExpiresAt != nil && c.ExpiresAt.Before(now):
		return invalid(MsgCouponExpired)
	case !c.HasRemainingUses():
		return invalid(MsgCouponUsageLimit)
	case !c.MeetsMinimumOrder(orderAmount):
		return invalid(fmt.Sprintf("Minimum order amount of %s required", c.MinOrderAmount.StringFixed(2)))
	case !c.UserCanUse(userUsageCount):
		return invalid(MsgCouponAlreadyUsed)
	}

	discount := c.CalculateDiscount(orderAmount)
	return ValidationResult{Valid: true, Discount: &discount}
}

// AppliesTo reports whether item is inside the coupon's scope.
func (c Coupon) AppliesTo(item CartItem) bool {
	switch c.Scope {
	case ScopeAll, "":
		return true
	case ScopeCategory:
		return slices.Contains(c.ScopeTargetIDs, item.CategoryID)
	case ScopeCollection:
		return slices.Contains(c.ScopeTargetIDs, item.CollectionID)
	case ScopeProduct:
		return slices.Contains(c.ScopeTargetIDs, item.ProductID)
	}
	return false
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Message: msg}
}

// CouponResponse is the API response DTO for GET /api/coupons/:code
type CouponResponse struct {
	Coupon
	WithinDateRange  bool `json:"within_date_range"`
	HasRemainingUses bool `json:"has_remaining_uses"`
}

// CreateCouponRequest is the DTO for creating a coupon
type CreateCouponRequest struct {
	Code           string           `json:"code" validate:"required,notblank,couponcode,max=64"`
	DiscountType   DiscountType     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue  *decimal.Decimal `json:"discount_value" validate:"required,gt=0"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount" validate:"omitempty,gte=0"`
	MaxUses        *int             `json:"max_uses" validate:"omitempty,gte=1"`
	MaxUsesPerUser *int             `json:"max_uses_per_user" validate:"omitempty,gte=1"`
	StartsAt       *time.Time       `json:"starts_at"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	IsActive       *bool            `json:"is_active"`
	Scope          Scope            `json:"scope" validate:"omitempty,oneof=all category collection product"`
	ScopeTargetIDs []int64          `json:"scope_target_ids" validate:"dive,gte=1"`
}

// ValidateCouponRequest is the DTO for checking a coupon against an order amount
type ValidateCouponRequest struct {
	UserID      string           `json:"user_id" validate:"required,notblank,max=255"`
	Code        string           `json:"code" validate:"required,notblank,max=64"`
	OrderAmount *decimal.Decimal `json:"order_amount" validate:"required,gte=0"`
}

// RedeemCouponRequest is the DTO for redeeming a coupon on an order
type RedeemCouponRequest struct {
	UserID      string           `json:"user_id" validate:"required,notblank,max=255"`
	Code        string           `json:"code" validate:"required,notblank,max=64"`
	OrderID     string           `json:"order_id" validate:"required,uuid"`
	OrderAmount *decimal.Decimal `json:"order_amount" validate:"required,gte=0"`
}
