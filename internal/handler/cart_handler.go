package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/internal/pricing"
	"github.com/fairyhunter13/storefront-cart/internal/service"
)

const maxUserIDLength = 255

// CartServiceInterface defines the interface for cart business logic.
type CartServiceInterface interface {
	LoadCart(ctx context.Context, userID string) []model.CartItem
	AddItem(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) error
	RemoveItem(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) error
	UpdateQuantity(ctx context.Context, userID string, productID int64, ownerSize, companionSize string, quantity int) error
	ClearCart(ctx context.Context, userID string) error
}

// CheckoutServiceInterface defines the interface for pricing a cart.
type CheckoutServiceInterface interface {
	Quote(ctx context.Context, userID, couponCode string) (*model.Quote, error)
}

// CartHandler handles HTTP requests for cart operations.
type CartHandler struct {
	carts     CartServiceInterface
	checkout  CheckoutServiceInterface
	validator *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts CartServiceInterface, checkout CheckoutServiceInterface, v *validator.Validate) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout, validator: v}
}

// GetCart handles GET /api/carts/:user_id requests.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return badRequest(c, "invalid request: user_id is invalid")
	}
	return c.JSON(h.cartResponse(c.Context(), userID))
}

// AddItem handles POST /api/carts/:user_id/items requests. Each call adds one unit.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return badRequest(c, "invalid request: user_id is invalid")
	}

	var req model.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	if err := h.carts.AddItem(c.Context(), userID, req.ProductID, req.OwnerSize, req.CompanionSize); err != nil {
		return h.writeError(c, err, userID, req.ProductID, "failed to add cart item")
	}

	return c.Status(fiber.StatusCreated).JSON(h.cartResponse(c.Context(), userID))
}

// UpdateQuantity handles PATCH /api/carts/:user_id/items requests.
// A quantity of zero removes the variant.
func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return badRequest(c, "invalid request: user_id is invalid")
	}

	var req model.UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	err := h.carts.UpdateQuantity(c.Context(), userID, req.ProductID, req.OwnerSize, req.CompanionSize, *req.Quantity)
	if err != nil {
		return h.writeError(c, err, userID, req.ProductID, "failed to update cart item quantity")
	}

	return c.JSON(h.cartResponse(c.Context(), userID))
}

// RemoveItem handles DELETE /api/carts/:user_id/items requests.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return badRequest(c, "invalid request: user_id is invalid")
	}

	var req model.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	if err := h.carts.RemoveItem(c.Context(), userID, req.ProductID, req.OwnerSize, req.CompanionSize); err != nil {
		return h.writeError(c, err, userID, req.ProductID, "failed to remove cart item")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ClearCart handles DELETE /api/carts/:user_id requests.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return badRequest(c, "invalid request: user_id is invalid")
	}

	if err := h.carts.ClearCart(c.Context(), userID); err != nil {
		return h.writeError(c, err, userID, 0, "failed to clear cart")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Quote handles GET /api/carts/:user_id/quote requests.
// The optional coupon_code query parameter is applied to the cart.
func (h *CartHandler) Quote(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return badRequest(c, "invalid request: user_id is invalid")
	}
	code := c.Query("coupon_code")

	quote, err := h.checkout.Quote(c.Context(), userID, code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return badRequest(c, "invalid request")
		}
		logFailure(c, err).
			Str("user_id", userID).
			Str("coupon_code", code).
			Msg("failed to quote cart")
		return internalError(c)
	}

	return c.JSON(quote)
}

func (h *CartHandler) userID(c *fiber.Ctx) (string, bool) {
	userID := strings.TrimSpace(c.Params("user_id"))
	if userID == "" || len(userID) > maxUserIDLength {
		return "", false
	}
	return userID, true
}

func (h *CartHandler) cartResponse(ctx context.Context, userID string) model.CartResponse {
	items := h.carts.LoadCart(ctx, userID)
	totals := pricing.Totals(items)
	return model.CartResponse{
		Items:     items,
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal,
	}
}

func (h *CartHandler) writeError(c *fiber.Ctx, err error, userID string, productID int64, msg string) error {
	if errors.Is(err, service.ErrInvalidRequest) {
		return badRequest(c, "invalid request")
	}
	logFailure(c, err).
		Str("user_id", userID).
		Int64("product_id", productID).
		Msg(msg)
	return internalError(c)
}
