package service

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/storefront-cart/internal/cart"
	"github.com/fairyhunter13/storefront-cart/internal/model"
)

// CartRepositoryInterface defines the interface for cart row access.
type CartRepositoryInterface interface {
	FetchRows(ctx context.Context, userID string) ([]model.CartLineRow, error)
	FindExactRow(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) (*model.CartLineRow, error)
	InsertRow(ctx context.Context, userID string, productID int64, ownerSize, companionSize string, quantity int) error
	UpdateRowQuantity(ctx context.Context, rowID int64, quantity int) error
	DeleteRows(ctx context.Context, rowIDs []int64) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// CartService maintains a user's cart on top of a row store that may hold
// several rows for the same variant.
//
// None of the write operations is transactional: AddItem reads and then
// inserts or updates, so concurrent adds for one variant can leave duplicate
// rows. LoadCart merges duplicates, which keeps the visible quantities right.
type CartService struct {
	repo         CartRepositoryInterface
	loadFailures atomic.Int64
}

// NewCartService creates a new CartService with the given repository.
func NewCartService(repo CartRepositoryInterface) *CartService {
	return &CartService{repo: repo}
}

// LoadCart returns the canonical items of a user's cart.
// A repository failure yields an empty cart; the failure is logged and
// counted in LoadFailures instead of being returned.
func (s *CartService) LoadCart(ctx context.Context, userID string) []model.CartItem {
	rows, err := s.repo.FetchRows(ctx, userID)
	if err != nil {
		s.loadFailures.Add(1)
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to load cart rows, serving empty cart")
		return []model.CartItem{}
	}
	return cart.Group(rows)
}

// LoadFailures returns how many LoadCart calls degraded to an empty cart.
func (s *CartService) LoadFailures() int64 {
	return s.loadFailures.Load()
}

// AddItem adds one unit of a variant to the cart.
func (s *CartService) AddItem(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) error {
	if err := checkVariant(userID, productID); err != nil {
		return err
	}

	owner := cart.NormalizeSize(ownerSize)
	companion := cart.NormalizeSize(companionSize)

	row, err := s.repo.FindExactRow(ctx, userID, productID, owner, companion)
	if err != nil {
		return storageErr("find cart row", err)
	}

	if row != nil {
		if err := s.repo.UpdateRowQuantity(ctx, row.ID, row.Quantity+1); err != nil {
			return storageErr("increment cart row", err)
		}
		return nil
	}

	if err := s.repo.InsertRow(ctx, userID, productID, owner, companion, 1); err != nil {
		return storageErr("insert cart row", err)
	}
	return nil
}

// RemoveItem deletes every row of the variant, whatever encoding its sizes
// were stored with. Removing a variant that is not in the cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) error {
	if err := checkVariant(userID, productID); err != nil {
		return err
	}

	rows, err := s.matchingRows(ctx, userID, productID, ownerSize, companionSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	if err := s.repo.DeleteRows(ctx, ids); err != nil {
		return storageErr("delete cart rows", err)
	}

	log.Debug().
		Str("user_id", userID).
		Int64("product_id", productID).
		Int("rows", len(ids)).
		Msg("cart variant removed")
	return nil
}

// UpdateQuantity sets quantity on every row of the variant. Duplicate rows
// each receive the new quantity and are merged again on the next load.
// A quantity below one removes the variant.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID int64, ownerSize, companionSize string, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, productID, ownerSize, companionSize)
	}
	if err := checkVariant(userID, productID); err != nil {
		return err
	}

	rows, err := s.matchingRows(ctx, userID, productID, ownerSize, companionSize)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := s.repo.UpdateRowQuantity(ctx, row.ID, quantity); err != nil {
			return storageErr("update cart row quantity", err)
		}
	}
	return nil
}

// ClearCart deletes all rows of the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidRequest
	}
	if err := s.repo.DeleteAllForUser(ctx, userID); err != nil {
		return storageErr("clear cart", err)
	}
	return nil
}

// matchingRows returns the user's rows for productID whose sizes are
// equivalent to the requested ones on both axes.
func (s *CartService) matchingRows(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) ([]model.CartLineRow, error) {
	rows, err := s.repo.FetchRows(ctx, userID)
	if err != nil {
		return nil, storageErr("fetch cart rows", err)
	}

	var matched []model.CartLineRow
	for _, row := range rows {
		if row.ProductID != productID {
			continue
		}
		if cart.SizesEquivalent(ownerSize, row.OwnerSize) && cart.SizesEquivalent(companionSize, row.CompanionSize) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func checkVariant(userID string, productID int64) error {
	if strings.TrimSpace(userID) == "" || productID <= 0 {
		return ErrInvalidRequest
	}
	return nil
}
