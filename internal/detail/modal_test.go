package detail

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cryptointel/internal/feed"
	"cryptointel/internal/market"
	"cryptointel/internal/news"
)

func newModal() *Modal {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var btc = market.AssetRecord{
	CoinID: "bitcoin", Name: "Bitcoin", Symbol: "btc",
	CurrentPrice: 67000, PriceChange24h: 2.5, MarketCap: 1.3e12,
	MarketCapRank: 1, TotalVolume: 3.5e10, VolatilityScore: 8.75e10,
}

func TestResolveOpensOnFirstDocument(t *testing.T) {
	m := newModal()
	req := m.Request("bitcoin")
	require.False(t, m.Visible(), "modal must not open before the lookup resolves")

	other := market.AssetRecord{CoinID: "wrapped-bitcoin", Name: "Wrapped Bitcoin"}
	require.True(t, m.Resolve(req, []market.AssetRecord{btc, other}, nil))
	require.True(t, m.Visible())
	cur, ok := m.Current()
	require.True(t, ok)
	require.Equal(t, "bitcoin", cur.CoinID)
}

func TestResolveFailureStaysClosed(t *testing.T) {
	m := newModal()
	require.False(t, m.Resolve(m.Request("bitcoin"), nil, errors.New("connection reset")))
	require.False(t, m.Visible())

	require.False(t, m.Resolve(m.Request("nothing"), nil, feed.ErrNotFound))
	require.False(t, m.Resolve(m.Request("nothing"), []market.AssetRecord{}, nil))
	require.False(t, m.Visible())
	require.Empty(t, m.View(80))
}

func TestResolveFailureKeepsOpenRecord(t *testing.T) {
	m := newModal()
	m.Resolve(m.Request("bitcoin"), []market.AssetRecord{btc}, nil)
	require.False(t, m.Resolve(m.Request("ethereum"), nil, errors.New("timeout")))
	cur, _ := m.Current()
	require.Equal(t, "bitcoin", cur.CoinID)
}

func TestSupersededLookupIgnored(t *testing.T) {
	m := newModal()
	first := m.Request("bitcoin")
	second := m.Request("ethereum")
	eth := market.AssetRecord{CoinID: "ethereum", Name: "Ethereum"}

	require.True(t, m.Resolve(second, []market.AssetRecord{eth}, nil))
	require.False(t, m.Resolve(first, []market.AssetRecord{btc}, nil))
	cur, _ := m.Current()
	require.Equal(t, "ethereum", cur.CoinID)
}

func TestCloseAndContains(t *testing.T) {
	m := newModal()
	m.Resolve(m.Request("bitcoin"), []market.AssetRecord{btc}, nil)
	m.SetBounds(Rect{X: 10, Y: 5, W: 40, H: 12})

	require.True(t, m.Contains(10, 5))
	require.True(t, m.Contains(49, 16))
	require.False(t, m.Contains(50, 16))
	require.False(t, m.Contains(9, 5))

	m.Close()
	require.False(t, m.Visible())
	require.False(t, m.Contains(20, 10), "closed modal has no bounds")
	_, ok := m.Current()
	require.False(t, ok)
}

func TestSetNewsOnlyForShownRecord(t *testing.T) {
	m := newModal()
	require.False(t, m.SetNews("bitcoin", []news.Headline{{Headline: "x"}}))

	m.Resolve(m.Request("bitcoin"), []market.AssetRecord{btc}, nil)
	require.False(t, m.SetNews("ethereum", []news.Headline{{Headline: "x"}}))

	items := make([]news.Headline, 8)
	for i := range items {
		items[i] = news.Headline{Time: time.Date(2024, 6, 1, i, 0, 0, 0, time.UTC), Headline: "Bitcoin ETF inflows"}
	}
	require.True(t, m.SetNews("bitcoin", items))
	require.Contains(t, m.View(100), "RECENT NEWS")
}

func TestViewShowsKPIsAndInsight(t *testing.T) {
	m := newModal()
	m.Resolve(m.Request("bitcoin"), []market.AssetRecord{btc}, nil)
	out := m.View(100)
	require.Contains(t, out, "Bitcoin (BTC)")
	require.Contains(t, out, "MARKET RANK #1")
	require.Contains(t, out, "$67,000.00")
	require.Contains(t, out, "+2.50%")
	require.Contains(t, Insight(btc), "87,500,000,000")
}

func TestRefreshUpdatesShownRecordOnly(t *testing.T) {
	m := newModal()
	require.False(t, m.Refresh(btc), "closed modal ignores refresh")

	m.Resolve(m.Request("bitcoin"), []market.AssetRecord{btc}, nil)
	newer := btc
	newer.CurrentPrice = 68000
	require.True(t, m.Refresh(newer))
	cur, _ := m.Current()
	require.Equal(t, 68000.0, cur.CurrentPrice)

	require.False(t, m.Refresh(market.AssetRecord{CoinID: "ethereum"}))
	cur, _ = m.Current()
	require.Equal(t, "bitcoin", cur.CoinID)
}
