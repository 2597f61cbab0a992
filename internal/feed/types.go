// Package feed is the client for the market network source: the summary
// document, the asset collection, and the single-entity lookup.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptointel/internal/market"
)

var (
	// ErrErrorDocument is returned when the source answers with a document
	// carrying an "error" field.
	ErrErrorDocument = errors.New("error document")

	// ErrNotFound is returned when a lookup yields no matching records.
	ErrNotFound = errors.New("not found")
)

// SummaryDoc is the wire form of GET /api/summary.
type SummaryDoc struct {
	TotalMarketCap float64         `json:"total_market_cap"`
	HighestGainer  GainerRef       `json:"highest_gainer"`
	MostVolatile   VolatileRef     `json:"most_volatile"`
	AvgPrice       float64         `json:"avg_price"`
	LastUpdated    string          `json:"last_updated"`
	Error          json.RawMessage `json:"error,omitempty"`
}

// GainerRef is the highest_gainer object of a summary document.
type GainerRef struct {
	CoinID         string  `json:"coin_id,omitempty"`
	Symbol         string  `json:"symbol"`
	PriceChange24h float64 `json:"price_change_24h"`
}

// VolatileRef is the most_volatile object of a summary document.
type VolatileRef struct {
	CoinID          string  `json:"coin_id,omitempty"`
	Symbol          string  `json:"symbol"`
	VolatilityScore float64 `json:"volatility_score"`
}

// errorDoc is the shape the source uses for failures on list endpoints.
type errorDoc struct {
	Error  json.RawMessage `json:"error"`
	Detail string          `json:"detail"`
}

// flagged reports whether a raw "error" value marks the document as failed.
// The source has used both a message string and a boolean true; false, null
// and "" are not failures.
func flagged(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	switch v {
	case "", "null", "false", `""`:
		return false
	}
	return true
}

// lastUpdatedLayouts covers ISO-8601 with and without zone and fraction.
var lastUpdatedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseLastUpdated(s string) (time.Time, error) {
	for _, layout := range lastUpdatedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing last_updated %q", s)
}

// Record converts the wire document to a market.SummaryRecord.
func (d SummaryDoc) Record() (market.SummaryRecord, error) {
	if flagged(d.Error) {
		return market.SummaryRecord{}, fmt.Errorf("summary: %w: %s", ErrErrorDocument, d.Error)
	}
	ts, err := parseLastUpdated(d.LastUpdated)
	if err != nil {
		return market.SummaryRecord{}, fmt.Errorf("summary: %w", err)
	}
	return market.SummaryRecord{
		TotalMarketCap: d.TotalMarketCap,
		HighestGainer: market.AssetRef{
			CoinID: d.HighestGainer.CoinID,
			Symbol: d.HighestGainer.Symbol,
			Value:  d.HighestGainer.PriceChange24h,
		},
		MostVolatile: market.AssetRef{
			CoinID: d.MostVolatile.CoinID,
			Symbol: d.MostVolatile.Symbol,
			Value:  d.MostVolatile.VolatilityScore,
		},
		AvgPrice:    d.AvgPrice,
		LastUpdated: ts,
	}, nil
}

// decodeAssets decodes a list endpoint body, which is either an array of
// asset documents or an error object.
func decodeAssets(body []byte) ([]market.AssetRecord, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var e errorDoc
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("decoding error document: %w", err)
		}
		msg := e.Detail
		if flagged(e.Error) {
			msg = string(e.Error)
		}
		return nil, fmt.Errorf("%w: %s", ErrErrorDocument, msg)
	}
	var assets []market.AssetRecord
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("decoding assets: %w", err)
	}
	return assets, nil
}
