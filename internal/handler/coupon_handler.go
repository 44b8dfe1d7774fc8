package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/internal/service"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.CouponResponse, error)
	Validate(ctx context.Context, userID, code string, orderAmount decimal.Decimal) (model.ValidationResult, error)
	Redeem(ctx context.Context, userID, code string, orderID uuid.UUID, orderAmount decimal.Decimal) (model.ValidationResult, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/coupons requests to create a new coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	coupon, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return badRequest(c, err.Error())
		}
		logFailure(c, err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return internalError(c)
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("coupon_code", coupon.Code).
		Str("discount_type", string(coupon.DiscountType)).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// GetCoupon handles GET /api/coupons/:code requests to retrieve coupon details.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "invalid request: code is required")
	}

	coupon, err := h.service.GetByCode(c.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		logFailure(c, err).Str("coupon_code", code).Msg("failed to get coupon")
		return internalError(c)
	}

	return c.JSON(coupon)
}

// ValidateCoupon handles POST /api/coupons/validate requests.
// An ineligible coupon is a 200 response with valid=false and a reason.
func (h *CouponHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	result, err := h.service.Validate(c.Context(), req.UserID, req.Code, *req.OrderAmount)
	if err != nil {
		logFailure(c, err).
			Str("user_id", req.UserID).
			Str("coupon_code", req.Code).
			Msg("failed to validate coupon")
		return internalError(c)
	}

	return c.JSON(result)
}

// RedeemCoupon handles POST /api/coupons/redeem requests.
func (h *CouponHandler) RedeemCoupon(c *fiber.Ctx) error {
	var req model.RedeemCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return badRequest(c, "invalid request: order_id must be a UUID")
	}

	result, err := h.service.Redeem(c.Context(), req.UserID, req.Code, orderID, *req.OrderAmount)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRedeemed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already redeemed for this order"})
		}
		logFailure(c, err).
			Str("user_id", req.UserID).
			Str("coupon_code", req.Code).
			Str("order_id", req.OrderID).
			Msg("failed to redeem coupon")
		return internalError(c)
	}

	return c.JSON(result)
}
