// Package market holds the canonical in-memory snapshot of market assets and
// the aggregate summary shared by every dashboard component.
package market

import "time"

// AssetRecord is one tradable entity as delivered by the market-data
// endpoint. Records are immutable once received and replaced wholesale on
// each sync.
type AssetRecord struct {
	CoinID          string  `json:"coin_id"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	CurrentPrice    float64 `json:"current_price"`
	PriceChange24h  float64 `json:"price_change_24h"` // signed percent
	MarketCap       float64 `json:"market_cap"`
	MarketCapRank   int     `json:"market_cap_rank"`
	TotalVolume     float64 `json:"total_volume"`
	VolatilityScore float64 `json:"volatility_score"`
}

// AssetRef points at one AssetRecord as it was when the summary was computed
// by the data source. Value is the metric that earned the reference
// (gain percent or volatility score).
type AssetRef struct {
	CoinID string
	Symbol string
	Value  float64
}

// SummaryRecord is the aggregate over the asset collection, supplied by the
// data source. It is produced independently of the asset list, so the two may
// describe slightly different instants.
type SummaryRecord struct {
	TotalMarketCap float64
	HighestGainer  AssetRef
	MostVolatile   AssetRef
	AvgPrice       float64
	LastUpdated    time.Time
}
