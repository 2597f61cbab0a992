package charts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cryptointel/internal/market"
)

func ranked(n int) []market.AssetRecord {
	out := make([]market.AssetRecord, n)
	for i := range out {
		out[i] = market.AssetRecord{
			CoinID:          fmt.Sprintf("coin-%02d", i+1),
			Name:            fmt.Sprintf("Coin %d", i+1),
			MarketCapRank:   i + 1,
			CurrentPrice:    float64(1000 - i),
			MarketCap:       float64(1e9 * (20 - i)),
			TotalVolume:     float64(i * 10),
			VolatilityScore: float64(i * i),
		}
	}
	return out
}

func TestProjectSizes(t *testing.T) {
	assets := ranked(20)
	require.Len(t, Project(PriceTrend, assets).Points, 15)
	require.Len(t, Project(Dominance, assets).Points, 10)
	require.Len(t, Project(Volatility, assets).Points, 10)
	require.Len(t, Project(Volume, assets).Points, 5)

	small := ranked(3)
	for _, k := range Kinds {
		require.Len(t, Project(k, small).Points, 3, k.String())
	}
	for _, k := range Kinds {
		require.Empty(t, Project(k, nil).Points, k.String())
	}
}

func TestProjectKeepsRankOrder(t *testing.T) {
	s := Project(Dominance, ranked(12))
	require.Equal(t, "coin-01", s.Points[0].CoinID)
	require.Equal(t, "coin-10", s.Points[9].CoinID)
	require.Equal(t, float64(20e9), s.Points[0].Value)
}

func TestProjectVolumeSortsStable(t *testing.T) {
	assets := ranked(8)
	// coin-03 and coin-05 tie at the top; rank order must break the tie.
	assets[2].TotalVolume = 500
	assets[4].TotalVolume = 500
	s := Project(Volume, assets)
	require.Equal(t, "coin-03", s.Points[0].CoinID)
	require.Equal(t, "coin-05", s.Points[1].CoinID)
	require.Equal(t, "coin-08", s.Points[2].CoinID)

	// The input stays in rank order.
	require.Equal(t, "coin-01", assets[0].CoinID)
}

func TestDuplicateNamesResolveByID(t *testing.T) {
	assets := []market.AssetRecord{
		{CoinID: "token-a", Name: "Token", MarketCapRank: 1, VolatilityScore: 10},
		{CoinID: "token-b", Name: "Token", MarketCapRank: 2, VolatilityScore: 20},
	}
	r := NewRegistry(nil)
	r.RebuildAll(assets)

	id, ok := r.Resolve(Volatility, 1)
	require.True(t, ok)
	require.Equal(t, "token-b", id)
}

func TestResolveOutOfRange(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Resolve(PriceTrend, 0)
	require.False(t, ok, "no chart built yet")

	r.RebuildAll(ranked(2))
	_, ok = r.Resolve(PriceTrend, 2)
	require.False(t, ok)
	_, ok = r.Resolve(PriceTrend, -1)
	require.False(t, ok)
}

func TestRebuildReleasesBeforeReplacing(t *testing.T) {
	r := NewRegistry(nil)
	r.RebuildAll(ranked(5))
	require.Equal(t, 4, r.Live())

	old, _ := r.Get(Volatility)
	r.RebuildAnalytics(ranked(5))
	r.RebuildAnalytics(ranked(5))

	require.True(t, old.Released())
	require.Equal(t, 4, r.Live(), "rebuilding must not accumulate instances")

	cur, _ := r.Get(Volatility)
	require.False(t, cur.Released())
	require.NotEqual(t, old.ID(), cur.ID())
	require.Empty(t, old.View(80, 10, -1))

	r.Close()
	require.Equal(t, 0, r.Live())
	require.True(t, cur.Released())
}

func TestViewRendersEveryLabel(t *testing.T) {
	r := NewRegistry(nil)
	r.RebuildAll(ranked(6))
	for _, k := range Kinds {
		c, ok := r.Get(k)
		require.True(t, ok)
		out := c.View(100, 8, 0)
		require.Contains(t, out, k.Title())
		for _, p := range c.Series().Points {
			require.True(t, strings.Contains(out, p.Label), "%s missing %q", k, p.Label)
		}
	}
}

func TestViewEmptySeries(t *testing.T) {
	r := NewRegistry(nil)
	c := r.Rebuild(Volume, nil)
	require.Contains(t, c.View(80, 10, -1), "no data")
}
