// Package search filters the asset collection by a free-text query.
package search

import (
	"strings"

	"cryptointel/internal/market"
)

// MinExactLen is the shortest query that may trigger an exact match.
const MinExactLen = 2

// Apply returns the records whose name or symbol contains query as a
// case-insensitive substring, in collection order. The query is matched as
// typed, spaces included. An empty query returns a copy of the full collection.
func Apply(assets []market.AssetRecord, query string) []market.AssetRecord {
	q := strings.ToLower(query)
	out := make([]market.AssetRecord, 0, len(assets))
	if q == "" {
		return append(out, assets...)
	}
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Symbol), q) {
			out = append(out, a)
		}
	}
	return out
}

// ExactMatch finds the first record whose symbol or name equals query,
// ignoring case. Queries shorter than MinExactLen never match.
func ExactMatch(assets []market.AssetRecord, query string) (market.AssetRecord, bool) {
	if len([]rune(query)) < MinExactLen {
		return market.AssetRecord{}, false
	}
	for _, a := range assets {
		if strings.EqualFold(a.Symbol, query) || strings.EqualFold(a.Name, query) {
			return a, true
		}
	}
	return market.AssetRecord{}, false
}
