// Package httpapi serves the market snapshot over HTTP in the JSON shapes the
// dashboard consumes, and pushes snapshot notifications over a websocket.
package httpapi

import "time"

// GainerJSON identifies the asset with the largest 24h change.
type GainerJSON struct {
	CoinID         string  `json:"coin_id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	PriceChange24h float64 `json:"price_change_24h"`
}

// VolatileJSON identifies the asset with the largest volatility score.
type VolatileJSON struct {
	CoinID          string  `json:"coin_id"`
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	VolatilityScore float64 `json:"volatility_score"`
}

// SummaryJSON is the body of GET /api/summary.
type SummaryJSON struct {
	TotalMarketCap float64      `json:"total_market_cap"`
	HighestGainer  GainerJSON   `json:"highest_gainer"`
	MostVolatile   VolatileJSON `json:"most_volatile"`
	AvgPrice       float64      `json:"avg_price"`
	LastUpdated    string       `json:"last_updated"`
}

// SnapshotEvent is pushed to websocket clients after each load.
type SnapshotEvent struct {
	Type        string    `json:"type"`
	ExtractedAt time.Time `json:"extracted_at"`
	Count       int       `json:"count"`
}

// NewSnapshotEvent builds the push message for a load of count assets.
func NewSnapshotEvent(extractedAt time.Time, count int) SnapshotEvent {
	return SnapshotEvent{Type: "snapshot", ExtractedAt: extractedAt.UTC(), Count: count}
}
