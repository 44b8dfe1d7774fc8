package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/internal/pricing"
)

// CartLoader is the read side of CartService used for pricing.
type CartLoader interface {
	LoadCart(ctx context.Context, userID string) []model.CartItem
}

// CouponEvaluator is the part of CouponService a quote needs.
type CouponEvaluator interface {
	Lookup(ctx context.Context, code string) (*model.Coupon, error)
	Evaluate(ctx context.Context, coupon model.Coupon, userID string, orderAmount decimal.Decimal) (model.ValidationResult, error)
}

// CheckoutService prices a cart and applies an optional coupon.
type CheckoutService struct {
	carts    CartLoader
	coupons  CouponEvaluator
	currency string
}

// NewCheckoutService creates a CheckoutService quoting amounts in currency.
func NewCheckoutService(carts CartLoader, coupons CouponEvaluator, currency string) *CheckoutService {
	return &CheckoutService{carts: carts, coupons: coupons, currency: currency}
}

// Quote returns the cart totals for userID with couponCode applied.
// The coupon is checked against the subtotal of the items in its scope; an
// empty code skips coupon evaluation.
func (s *CheckoutService) Quote(ctx context.Context, userID, couponCode string) (*model.Quote, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidRequest
	}

	items := s.carts.LoadCart(ctx, userID)
	totals := pricing.Totals(items)

	quote := &model.Quote{
		Items:     items,
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal,
		Discount:  decimal.Zero,
		Total:     totals.Subtotal,
		Currency:  s.currency,
	}

	if strings.TrimSpace(couponCode) == "" {
		return quote, nil
	}

	coupon, err := s.coupons.Lookup(ctx, couponCode)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		quote.Coupon = &model.ValidationResult{Valid: false, Message: model.MsgCouponNotFound}
		return quote, nil
	}

	eligible := pricing.EligibleSubtotal(items, coupon.AppliesTo)
	result, err := s.coupons.Evaluate(ctx, *coupon, userID, eligible)
	if err != nil {
		return nil, err
	}
	quote.Coupon = &result

	if result.Valid {
		quote.Discount = *result.Discount
		quote.Total = pricing.Payable(totals.Subtotal, quote.Discount)
	}
	return quote, nil
}
