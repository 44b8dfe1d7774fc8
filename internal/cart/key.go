package cart

import (
	"strconv"
	"strings"
)

// keySeparator is the ASCII unit separator; it cannot occur in a numeric
// product id or in a printable size label.
const keySeparator = "\x1f"

// VariantKey returns the identity of a product variant. Every encoding of
// "no size" yields the same key.
func VariantKey(productID int64, ownerSize, companionSize string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(productID, 10))
	b.WriteString(keySeparator)
	b.WriteString(NormalizeSize(ownerSize))
	b.WriteString(keySeparator)
	b.WriteString(NormalizeSize(companionSize))
	return b.String()
}
