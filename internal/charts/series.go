// Package charts projects the asset collection into the four dashboard
// chart series, owns the chart instances, and maps a selected chart element
// back to the asset it came from.
package charts

import (
	"sort"

	"cryptointel/internal/market"
)

// Kind identifies one of the dashboard charts.
type Kind int

const (
	PriceTrend Kind = iota
	Dominance
	Volatility
	Volume
)

// Kinds lists every chart in display order.
var Kinds = []Kind{PriceTrend, Dominance, Volatility, Volume}

// AnalyticsKinds are the charts shown on the analytics view.
var AnalyticsKinds = []Kind{Volatility, Volume}

// Top-N sizes per chart.
const (
	priceTrendTop = 15
	dominanceTop  = 10
	volatilityTop = 10
	volumeTop     = 5
)

func (k Kind) String() string {
	switch k {
	case PriceTrend:
		return "price-trend"
	case Dominance:
		return "dominance"
	case Volatility:
		return "volatility"
	case Volume:
		return "volume"
	default:
		return "unknown"
	}
}

// Title is the heading shown above the chart.
func (k Kind) Title() string {
	switch k {
	case PriceTrend:
		return "Price Trend (top 15)"
	case Dominance:
		return "Market Cap Dominance (top 10)"
	case Volatility:
		return "Volatility Index (top 10)"
	case Volume:
		return "Volume Distribution (top 5)"
	default:
		return ""
	}
}

// Point is one chart element. CoinID travels with the label so a selected
// element resolves to its record even when names repeat.
type Point struct {
	Label  string
	CoinID string
	Value  float64
}

// Series is the input of one chart.
type Series struct {
	Kind   Kind
	Points []Point
}

// Values returns the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Project builds the series for kind from assets, which must be in rank
// order. Only Volume re-sorts, by total volume descending; ties keep rank
// order.
func Project(kind Kind, assets []market.AssetRecord) Series {
	s := Series{Kind: kind}
	switch kind {
	case PriceTrend:
		s.Points = points(head(assets, priceTrendTop), func(a market.AssetRecord) float64 { return a.CurrentPrice })
	case Dominance:
		s.Points = points(head(assets, dominanceTop), func(a market.AssetRecord) float64 { return a.MarketCap })
	case Volatility:
		s.Points = points(head(assets, volatilityTop), func(a market.AssetRecord) float64 { return a.VolatilityScore })
	case Volume:
		sorted := make([]market.AssetRecord, len(assets))
		copy(sorted, assets)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].TotalVolume > sorted[j].TotalVolume
		})
		s.Points = points(head(sorted, volumeTop), func(a market.AssetRecord) float64 { return a.TotalVolume })
	}
	return s
}

func head(assets []market.AssetRecord, n int) []market.AssetRecord {
	if len(assets) < n {
		return assets
	}
	return assets[:n]
}

func points(assets []market.AssetRecord, value func(market.AssetRecord) float64) []Point {
	out := make([]Point, len(assets))
	for i, a := range assets {
		out[i] = Point{Label: a.Name, CoinID: a.CoinID, Value: value(a)}
	}
	return out
}
