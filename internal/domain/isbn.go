package domain

import "strings"

// NormalizeISBN canonicalizes a book identifier for storage and comparison.
// ASINs are case-insensitive on the marketplace side, so both ISBNs and ASINs
// are stored trimmed and uppercased.
func NormalizeISBN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeISBNList normalizes every identifier in the list, drops empties and
// duplicates, and preserves first-seen order.
func NormalizeISBNList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		n := NormalizeISBN(raw)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
