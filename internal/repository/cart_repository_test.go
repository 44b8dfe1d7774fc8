package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/storefront-cart/internal/model"
)

// mockRows implements pgx.Rows over a fixed set of scan functions.
type mockRows struct {
	scans  []func(dest ...any) error
	pos    int
	err    error
	closed bool
}

func (m *mockRows) Close()                                       { m.closed = true }
func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

func (m *mockRows) Next() bool {
	if m.pos >= len(m.scans) {
		return false
	}
	m.pos++
	return true
}

func (m *mockRows) Scan(dest ...any) error {
	return m.scans[m.pos-1](dest...)
}

func strPtr(s string) *string { return &s }

// cartRow fills scan destinations in fetchCartRowsQuery order.
func cartRow(r model.CartLineRow) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*int64)) = r.ID
		*(dest[1].(*string)) = r.UserID
		*(dest[2].(*int64)) = r.ProductID
		*(dest[3].(**string)) = r.OwnerSize
		*(dest[4].(**string)) = r.CompanionSize
		*(dest[5].(*int)) = r.Quantity
		*(dest[6].(*string)) = r.Product.Name
		*(dest[7].(*decimal.Decimal)) = r.Product.Price
		*(dest[8].(*string)) = r.Product.Image
		*(dest[9].(*string)) = r.Product.Slug
		*(dest[10].(*int64)) = r.Product.CategoryID
		*(dest[11].(*int64)) = r.Product.CollectionID
		return nil
	}
}

func TestCartRepository_FetchRows_Success(t *testing.T) {
	first := model.CartLineRow{
		ID: 1, UserID: "user_001", ProductID: 42,
		OwnerSize: strPtr("M"), CompanionSize: strPtr("N/A"), Quantity: 2,
		Product: model.ProductSummary{Name: "Matching Tee", Price: decimal.RequireFromString("19.99"), Slug: "matching-tee", CategoryID: 3},
	}
	legacy := model.CartLineRow{
		ID: 2, UserID: "user_001", ProductID: 42, Quantity: 1,
		Product: first.Product,
	}
	rows := &mockRows{scans: []func(dest ...any) error{cartRow(first), cartRow(legacy)}}

	var capturedSQL string
	pool := &mockTxQuerier{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			assert.Equal(t, []any{"user_001"}, args)
			return rows, nil
		},
	}

	got, err := NewCartRepositoryWithPool(pool).FetchRows(context.Background(), "user_001")

	require.NoError(t, err)
	assert.Equal(t, []model.CartLineRow{first, legacy}, got)
	assert.Nil(t, got[1].OwnerSize, "NULL sizes stay nil for the aggregator")
	assert.Contains(t, capturedSQL, "JOIN products")
	assert.Contains(t, capturedSQL, "ORDER BY ci.id")
	assert.True(t, rows.closed, "rows must be closed")
}

func TestCartRepository_FetchRows_EmptyIsNotNil(t *testing.T) {
	pool := &mockTxQuerier{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{}, nil
		},
	}

	got, err := NewCartRepositoryWithPool(pool).FetchRows(context.Background(), "user_001")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCartRepository_FetchRows_Errors(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name    string
		queryFn func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		wantMsg string
	}{
		{
			name: "query fails",
			queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return nil, dbErr
			},
			wantMsg: "fetch cart rows",
		},
		{
			name: "scan fails",
			queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return &mockRows{scans: []func(dest ...any) error{
					func(dest ...any) error { return dbErr },
				}}, nil
			},
			wantMsg: "scan cart row",
		},
		{
			name: "iteration fails",
			queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return &mockRows{err: dbErr}, nil
			},
			wantMsg: "iterate cart rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCartRepositoryWithPool(&mockTxQuerier{queryFn: tt.queryFn}).FetchRows(context.Background(), "user_001")

			require.Error(t, err)
			assert.Nil(t, got)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.ErrorIs(t, err, dbErr)
		})
	}
}

func TestCartRepository_FindExactRow(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		var capturedArgs []any
		pool := &mockTxQuerier{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				capturedArgs = args
				assert.Contains(t, sql, "owner_size = $3 AND companion_size = $4")
				return &mockRow{scanFn: func(dest ...any) error {
					*(dest[0].(*int64)) = 9
					*(dest[1].(*string)) = "user_001"
					*(dest[2].(*int64)) = 42
					*(dest[3].(**string)) = strPtr("M")
					*(dest[4].(**string)) = strPtr("N/A")
					*(dest[5].(*int)) = 3
					return nil
				}}
			},
		}

		row, err := NewCartRepositoryWithPool(pool).FindExactRow(context.Background(), "user_001", 42, "M", "N/A")

		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, int64(9), row.ID)
		assert.Equal(t, 3, row.Quantity)
		assert.Equal(t, []any{"user_001", int64(42), "M", "N/A"}, capturedArgs)
	})

	t.Run("not found", func(t *testing.T) {
		pool := &mockTxQuerier{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return errRow(pgx.ErrNoRows)
			},
		}

		row, err := NewCartRepositoryWithPool(pool).FindExactRow(context.Background(), "user_001", 42, "M", "N/A")

		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("database error", func(t *testing.T) {
		dbErr := errors.New("timeout")
		pool := &mockTxQuerier{
			queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return errRow(dbErr)
			},
		}

		row, err := NewCartRepositoryWithPool(pool).FindExactRow(context.Background(), "user_001", 42, "M", "N/A")

		assert.Nil(t, row)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestCartRepository_Writes(t *testing.T) {
	tests := []struct {
		name     string
		call     func(r *CartRepository) error
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "insert",
			call: func(r *CartRepository) error {
				return r.InsertRow(context.Background(), "user_001", 42, "M", "N/A", 2)
			},
			wantSQL:  "INSERT INTO cart_items",
			wantArgs: []any{"user_001", int64(42), "M", "N/A", 2},
		},
		{
			name: "update quantity",
			call: func(r *CartRepository) error {
				return r.UpdateRowQuantity(context.Background(), 9, 5)
			},
			wantSQL:  "UPDATE cart_items SET quantity",
			wantArgs: []any{int64(9), 5},
		},
		{
			name: "delete rows",
			call: func(r *CartRepository) error {
				return r.DeleteRows(context.Background(), []int64{9, 11})
			},
			wantSQL:  "id = ANY($1)",
			wantArgs: []any{[]int64{9, 11}},
		},
		{
			name: "delete all for user",
			call: func(r *CartRepository) error {
				return r.DeleteAllForUser(context.Background(), "user_001")
			},
			wantSQL:  "DELETE FROM cart_items WHERE user_id = $1",
			wantArgs: []any{"user_001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedSQL string
			var capturedArgs []any
			pool := &mockTxQuerier{
				execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
					capturedSQL = sql
					capturedArgs = arguments
					return pgconn.NewCommandTag("OK"), nil
				},
			}

			require.NoError(t, tt.call(NewCartRepositoryWithPool(pool)))
			assert.Contains(t, capturedSQL, tt.wantSQL)
			assert.Equal(t, tt.wantArgs, capturedArgs)
		})
	}
}

func TestCartRepository_Writes_WrapErrors(t *testing.T) {
	dbErr := errors.New("disk full")
	pool := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}
	repo := NewCartRepositoryWithPool(pool)
	ctx := context.Background()

	assert.ErrorIs(t, repo.InsertRow(ctx, "user_001", 1, "N/A", "N/A", 1), dbErr)
	assert.ErrorIs(t, repo.UpdateRowQuantity(ctx, 1, 2), dbErr)
	assert.ErrorIs(t, repo.DeleteRows(ctx, []int64{1}), dbErr)
	assert.ErrorIs(t, repo.DeleteAllForUser(ctx, "user_001"), dbErr)
}

func TestCartRepository_DeleteRows_EmptyIsNoop(t *testing.T) {
	pool := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			t.Fatal("no statement expected for an empty id list")
			return pgconn.CommandTag{}, nil
		},
	}

	assert.NoError(t, NewCartRepositoryWithPool(pool).DeleteRows(context.Background(), nil))
}
