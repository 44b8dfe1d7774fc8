package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/storefront-cart/internal/model"
	"github.com/fairyhunter13/storefront-cart/pkg/database"
)

const fetchCartRowsQuery = `
	SELECT ci.id, ci.user_id, ci.product_id, ci.owner_size, ci.companion_size, ci.quantity,
	       p.name, p.price, p.image, p.slug,
	       COALESCE(p.category_id, 0), COALESCE(p.collection_id, 0)
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.id`

// CartRepository provides data access for cart rows using pgx.
// It stores sizes exactly as given; callers normalize before writing.
type CartRepository struct {
	pool database.TxQuerier
}

// NewCartRepository creates a new CartRepository with the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// NewCartRepositoryWithPool creates a new CartRepository with a custom pool interface.
// This is primarily used for testing.
func NewCartRepositoryWithPool(pool database.TxQuerier) *CartRepository {
	return &CartRepository{pool: pool}
}

// FetchRows returns every cart row of a user joined with its product.
// Returns an empty slice (not nil) when the cart is empty.
func (r *CartRepository) FetchRows(ctx context.Context, userID string) ([]model.CartLineRow, error) {
	rows, err := r.pool.Query(ctx, fetchCartRowsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch cart rows for %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.CartLineRow{}
	for rows.Next() {
		var row model.CartLineRow
		if err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.ProductID,
			&row.OwnerSize,
			&row.CompanionSize,
			&row.Quantity,
			&row.Product.Name,
			&row.Product.Price,
			&row.Product.Image,
			&row.Product.Slug,
			&row.Product.CategoryID,
			&row.Product.CollectionID,
		); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart rows: %w", err)
	}
	return out, nil
}

// FindExactRow returns the oldest row whose sizes equal the given strings
// byte for byte. Rows stored with NULL sizes never match.
// Returns nil, nil if no row matches.
func (r *CartRepository) FindExactRow(ctx context.Context, userID string, productID int64, ownerSize, companionSize string) (*model.CartLineRow, error) {
	query := `SELECT id, user_id, product_id, owner_size, companion_size, quantity
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND owner_size = $3 AND companion_size = $4
		ORDER BY id
		LIMIT 1`

	var row model.CartLineRow
	err := r.pool.QueryRow(ctx, query, userID, productID, ownerSize, companionSize).Scan(
		&row.ID,
		&row.UserID,
		&row.ProductID,
		&row.OwnerSize,
		&row.CompanionSize,
		&row.Quantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find cart row for %s/%d: %w", userID, productID, err)
	}
	return &row, nil
}

// InsertRow inserts a new cart row.
func (r *CartRepository) InsertRow(ctx context.Context, userID string, productID int64, ownerSize, companionSize string, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (user_id, product_id, owner_size, companion_size, quantity) VALUES ($1, $2, $3, $4, $5)`,
		userID, productID, ownerSize, companionSize, quantity)
	if err != nil {
		return fmt.Errorf("insert cart row: %w", err)
	}
	return nil
}

// UpdateRowQuantity sets the quantity of a single row.
func (r *CartRepository) UpdateRowQuantity(ctx context.Context, rowID int64, quantity int) error {
	_, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1`, rowID, quantity)
	if err != nil {
		return fmt.Errorf("update quantity of cart row %d: %w", rowID, err)
	}
	return nil
}

// DeleteRows deletes the rows with the given ids. An empty id list is a no-op.
func (r *CartRepository) DeleteRows(ctx context.Context, rowIDs []int64) error {
	if len(rowIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, rowIDs)
	if err != nil {
		return fmt.Errorf("delete cart rows: %w", err)
	}
	return nil
}

// DeleteAllForUser deletes every cart row of a user.
func (r *CartRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete cart of %s: %w", userID, err)
	}
	return nil
}
