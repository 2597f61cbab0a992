package ingest

import (
	"math"

	"cryptointel/internal/market"
)

// Transform turns an extraction into asset records. Coins without an id or a
// price are dropped, as are repeated ids after the first. The 24h change is
// the percentage change, and the volatility score is its magnitude times the
// 24h volume.
func Transform(coins []Coin) (assets []market.AssetRecord, dropped int) {
	assets = make([]market.AssetRecord, 0, len(coins))
	seen := make(map[string]bool, len(coins))
	for _, c := range coins {
		if c.ID == "" || c.CurrentPrice == nil || seen[c.ID] {
			dropped++
			continue
		}
		seen[c.ID] = true

		pct := deref(c.PriceChangePercentage24h)
		vol := deref(c.TotalVolume)
		assets = append(assets, market.AssetRecord{
			CoinID:          c.ID,
			Name:            c.Name,
			Symbol:          c.Symbol,
			CurrentPrice:    *c.CurrentPrice,
			PriceChange24h:  pct,
			MarketCap:       deref(c.MarketCap),
			MarketCapRank:   deref(c.MarketCapRank),
			TotalVolume:     vol,
			VolatilityScore: math.Abs(pct) * vol,
		})
	}
	return assets, dropped
}
