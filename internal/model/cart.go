package model

import "github.com/shopspring/decimal"

// ProductSummary is the catalog data joined onto a cart row when it is read.
type ProductSummary struct {
	Name         string
	Price        decimal.Decimal
	Image        string
	Slug         string
	CategoryID   int64
	CollectionID int64
}

// CartLineRow is a persisted cart row. Several rows may exist for the same
// user and variant; they are merged when the cart is read.
type CartLineRow struct {
	ID            int64
	UserID        string
	ProductID     int64
	OwnerSize     *string // nil, "" and "N/A" all mean "no size"
	CompanionSize *string
	Quantity      int
	Product       ProductSummary
}

// CartItem is the canonical, deduplicated view of one variant in a cart.
// It is derived from CartLineRows on every read and never persisted.
type CartItem struct {
	Key           string          `json:"-"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image"`
	OwnerSize     string          `json:"owner_size"`
	CompanionSize string          `json:"companion_size"`
	Quantity      int             `json:"quantity"`
	Slug          string          `json:"slug"`
	CategoryID    int64           `json:"-"`
	CollectionID  int64           `json:"-"`
}

// Totals is the result of pricing a list of cart items.
type Totals struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse is the API response DTO for GET /api/carts/:user_id
type CartResponse struct {
	Items     []CartItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Quote is a priced cart with an optional coupon applied.
type Quote struct {
	Items     []CartItem        `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Discount  decimal.Decimal   `json:"discount"`
	Total     decimal.Decimal   `json:"total"`
	Currency  string            `json:"currency"`
	Coupon    *ValidationResult `json:"coupon,omitempty"`
}

// CartItemRequest is the DTO for adding or removing a cart variant.
type CartItemRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gte=1"`
	OwnerSize     string `json:"owner_size" validate:"max=64"`
	CompanionSize string `json:"companion_size" validate:"max=64"`
}

// UpdateQuantityRequest is the DTO for setting the quantity of a cart variant.
type UpdateQuantityRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gte=1"`
	OwnerSize     string `json:"owner_size" validate:"max=64"`
	CompanionSize string `json:"companion_size" validate:"max=64"`
	Quantity      *int   `json:"quantity" validate:"required,gte=0,lte=999"`
}
