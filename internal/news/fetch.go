// Package news fetches recent headlines for an asset, shown in the detail
// view when Alpaca credentials are configured.
package news

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Headline is a single news item.
type Headline struct {
	Time     time.Time
	Source   string
	Headline string
	Summary  string
	URL      string
}

// Fetcher returns up to limit recent headlines for a crypto symbol.
type Fetcher interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]Headline, error)
}

// Alpaca fetches news from the Alpaca marketdata API.
type Alpaca struct {
	mdc      *marketdata.Client
	lookback time.Duration
}

var _ Fetcher = (*Alpaca)(nil)

// NewAlpaca creates a fetcher. An empty dataURL selects Alpaca's default.
func NewAlpaca(apiKey, apiSecret, dataURL string) *Alpaca {
	return &Alpaca{
		mdc: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   dataURL,
		}),
		lookback: 7 * 24 * time.Hour,
	}
}

// Headlines returns the newest headlines first.
func (a *Alpaca) Headlines(ctx context.Context, symbol string, limit int) ([]Headline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := a.mdc.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{CryptoSymbol(symbol)},
		Start:      time.Now().Add(-a.lookback),
		TotalLimit: limit,
		Sort:       marketdata.SortDesc,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Headline, 0, len(items))
	for _, n := range items {
		out = append(out, Headline{
			Time:     n.CreatedAt,
			Source:   n.Source,
			Headline: StripHTML(n.Headline),
			Summary:  StripHTML(n.Summary),
			URL:      n.URL,
		})
	}
	return out, nil
}

// CryptoSymbol maps a coin symbol to the pair Alpaca tags news with,
// e.g. "btc" -> "BTCUSD".
func CryptoSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || strings.HasSuffix(s, "USD") {
		return s
	}
	return s + "USD"
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
