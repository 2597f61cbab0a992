// Package ingest pulls market snapshots from CoinGecko, reshapes them into
// asset records, archives the raw extraction, and loads the snapshot store.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cryptointel/internal/store"
	"cryptointel/internal/util"
)

// ErrRateLimited is returned when CoinGecko answers 429 on every attempt.
var ErrRateLimited = errors.New("rate limited")

// Coin is one element of the /coins/markets response. Numeric fields are
// pointers because CoinGecko sends null for coins it has no data on.
type Coin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
	PriceChange24h           *float64 `json:"price_change_24h"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	LastUpdated              string   `json:"last_updated"`
}

func deref[T int | float64](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}

// Raw converts c to its archive schema.
func (c Coin) Raw() store.RawCoin {
	return store.RawCoin{
		ID:                       c.ID,
		Symbol:                   c.Symbol,
		Name:                     c.Name,
		CurrentPrice:             deref(c.CurrentPrice),
		MarketCap:                deref(c.MarketCap),
		MarketCapRank:            int64(deref(c.MarketCapRank)),
		TotalVolume:              deref(c.TotalVolume),
		High24h:                  deref(c.High24h),
		Low24h:                   deref(c.Low24h),
		PriceChange24h:           deref(c.PriceChange24h),
		PriceChangePercentage24h: deref(c.PriceChangePercentage24h),
		LastUpdated:              c.LastUpdated,
	}
}

// Extractor fetches the top coins by market cap.
type Extractor struct {
	apiURL      string
	perPage     int
	httpClient  *http.Client
	limiter     *util.RateLimiter
	maxAttempts int
	baseDelay   time.Duration
	log         *slog.Logger
}

// NewExtractor creates an Extractor for the /coins/markets endpoint at apiURL.
// Requests share limiter; each extraction is attempted up to maxAttempts
// times.
func NewExtractor(apiURL string, perPage int, limiter *util.RateLimiter, maxAttempts int, log *slog.Logger) *Extractor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		apiURL:      apiURL,
		perPage:     perPage,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     limiter,
		maxAttempts: maxAttempts,
		baseDelay:   2 * time.Second,
		log:         log,
	}
}

func (e *Extractor) requestURL() (string, error) {
	u, err := url.Parse(e.apiURL)
	if err != nil {
		return "", fmt.Errorf("parsing api url: %w", err)
	}
	q := u.Query()
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(e.perPage))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Extract fetches one page of coins. 429 and 5xx responses are retried with
// backoff; other failures are returned immediately.
func (e *Extractor) Extract(ctx context.Context) ([]Coin, error) {
	reqURL, err := e.requestURL()
	if err != nil {
		return nil, err
	}

	var coins []Coin
	attempt := 0
	err = util.Retry(ctx, e.maxAttempts, e.baseDelay, func() error {
		attempt++
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return util.Permanent(err)
			}
		}
		c, err := e.fetch(ctx, reqURL)
		if err != nil {
			e.log.Warn("coingecko fetch failed", "attempt", attempt, "error", err)
			return err
		}
		coins = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extracting markets: %w", err)
	}
	e.log.Info("fetched coins", "count", len(coins), "attempts", attempt)
	return coins, nil
}

func (e *Extractor) fetch(ctx context.Context, reqURL string) ([]Coin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, util.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, util.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, util.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	var coins []Coin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, util.Permanent(fmt.Errorf("decoding markets: %w", err))
	}
	return coins, nil
}
