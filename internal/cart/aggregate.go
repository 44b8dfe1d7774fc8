package cart

import "github.com/fairyhunter13/storefront-cart/internal/model"

// Group folds raw cart rows into canonical items, one per variant key.
// Quantities of rows sharing a key are summed. Items are returned in order
// of first occurrence, but callers must not rely on ordering.
func Group(rows []model.CartLineRow) []model.CartItem {
	index := make(map[string]int, len(rows))
	items := make([]model.CartItem, 0, len(rows))

	for _, row := range rows {
		owner := NormalizeSizePtr(row.OwnerSize)
		companion := NormalizeSizePtr(row.CompanionSize)
		key := VariantKey(row.ProductID, owner, companion)

		if i, ok := index[key]; ok {
			merged := items[i]
			merged.Quantity += row.Quantity
			items[i] = merged
			continue
		}

		index[key] = len(items)
		items = append(items, model.CartItem{
			Key:           key,
			ProductID:     row.ProductID,
			Name:          row.Product.Name,
			Price:         row.Product.Price,
			Image:         row.Product.Image,
			OwnerSize:     owner,
			CompanionSize: companion,
			Quantity:      row.Quantity,
			Slug:          row.Product.Slug,
			CategoryID:    row.Product.CategoryID,
			CollectionID:  row.Product.CollectionID,
		})
	}

	return items
}
