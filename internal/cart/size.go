// Package cart holds the pure cart identity logic: size normalization,
// variant keys and the folding of raw cart rows into canonical items.
package cart

// NoSize is the canonical "no size selected" value.
const NoSize = "N/A"

// NormalizeSize maps "" and "N/A" to NoSize. Any other label is returned
// unchanged; labels are case-sensitive and never trimmed.
func NormalizeSize(raw string) string {
	if raw == "" {
		return NoSize
	}
	return raw
}

// NormalizeSizePtr is NormalizeSize for nullable stored values; nil maps to NoSize.
func NormalizeSizePtr(raw *string) string {
	if raw == nil {
		return NoSize
	}
	return NormalizeSize(*raw)
}

// SizesEquivalent reports whether a requested size matches a stored one.
// Stored rows may encode "no size" as NULL, "" or "N/A"; all of them match
// a request for no size.
func SizesEquivalent(input string, stored *string) bool {
	n := NormalizeSize(input)
	if n == NoSize {
		return stored == nil || *stored == "" || *stored == NoSize
	}
	return n == NormalizeSizePtr(stored)
}
