package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptointel/internal/market"
)

// Source is the read-only network source consumed by the sync controller and
// the detail modal.
type Source interface {
	Summary(ctx context.Context) (market.SummaryRecord, error)
	Assets(ctx context.Context) ([]market.AssetRecord, error)
	Lookup(ctx context.Context, query string) ([]market.AssetRecord, error)
}

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

// Client talks to the crypto-intel HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Source = (*Client)(nil)

// NewClient creates a client for the API at baseURL. A zero timeout selects
// the 30s default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// Summary fetches GET /api/summary.
func (c *Client) Summary(ctx context.Context) (market.SummaryRecord, error) {
	body, err := c.get(ctx, "/api/summary", nil)
	if err != nil {
		return market.SummaryRecord{}, err
	}
	var doc SummaryDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return market.SummaryRecord{}, fmt.Errorf("decoding summary: %w", err)
	}
	return doc.Record()
}

// Assets fetches GET /api/market-data, preserving server order.
func (c *Client) Assets(ctx context.Context) ([]market.AssetRecord, error) {
	body, err := c.get(ctx, "/api/market-data", nil)
	if err != nil {
		return nil, err
	}
	return decodeAssets(body)
}

// Lookup fetches GET /api/search?q=query. An empty result (or a 404) is
// reported as ErrNotFound.
func (c *Client) Lookup(ctx context.Context, query string) ([]market.AssetRecord, error) {
	body, err := c.get(ctx, "/api/search", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	assets, err := decodeAssets(body)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("lookup %q: %w", query, ErrNotFound)
	}
	return assets, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}
