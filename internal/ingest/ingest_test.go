package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cryptointel/internal/market"
	"cryptointel/internal/store"
	"cryptointel/internal/util"
)

const marketsBody = `[
 {"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":67000,"market_cap":1.3e12,"market_cap_rank":1,
  "total_volume":3e10,"price_change_24h":800,"price_change_percentage_24h":1.2,"last_updated":"2024-06-15T09:00:00.000Z"},
 {"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3500,"market_cap":4.2e11,"market_cap_rank":2,
  "total_volume":1.5e10,"price_change_24h":-50,"price_change_percentage_24h":-2,"last_updated":"2024-06-15T09:00:00.000Z"},
 {"id":"ghost","symbol":"gst","name":"Ghost","current_price":null,"market_cap":null,"market_cap_rank":null,
  "total_volume":null,"price_change_24h":null,"price_change_percentage_24h":null}
]`

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestExtractor(url string, attempts int) *Extractor {
	e := NewExtractor(url, 20, nil, attempts, quietLog())
	e.baseDelay = time.Millisecond
	return e
}

func TestExtractSendsQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "usd", q.Get("vs_currency"))
		require.Equal(t, "market_cap_desc", q.Get("order"))
		require.Equal(t, "20", q.Get("per_page"))
		w.Write([]byte(marketsBody))
	}))
	defer srv.Close()

	coins, err := newTestExtractor(srv.URL, 1).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 3)
	require.Equal(t, "bitcoin", coins[0].ID)
	require.Nil(t, coins[2].CurrentPrice)
}

func TestExtractRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(marketsBody))
	}))
	defer srv.Close()

	coins, err := newTestExtractor(srv.URL, 3).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 3)
	require.EqualValues(t, 3, calls.Load())
}

func TestExtractGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestExtractor(srv.URL, 2).Extract(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	require.EqualValues(t, 2, calls.Load())
}

func TestExtractClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestExtractor(srv.URL, 5).Extract(context.Background())
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestExtractHonoursRateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	e := NewExtractor(srv.URL, 20, util.NewRateLimiter(1), 1, quietLog())
	_, err := e.Extract(context.Background())
	require.NoError(t, err)

	// The single token is spent; the next call must wait and sees the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Extract(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func f64(v float64) *float64 { return &v }

func TestTransform(t *testing.T) {
	rank := 1
	coins := []Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: f64(67000), MarketCap: f64(1.3e12),
			MarketCapRank: &rank, TotalVolume: f64(3e10), PriceChangePercentage24h: f64(-2)},
		{ID: "", Symbol: "x", Name: "NoID", CurrentPrice: f64(1)},
		{ID: "ghost", Symbol: "gst", Name: "Ghost"},
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin again", CurrentPrice: f64(1)},
		{ID: "quiet", Symbol: "qt", Name: "Quiet", CurrentPrice: f64(0.5)},
	}

	assets, dropped := Transform(coins)
	require.Equal(t, 3, dropped)
	require.Equal(t, []market.AssetRecord{
		{CoinID: "bitcoin", Name: "Bitcoin", Symbol: "btc", CurrentPrice: 67000, PriceChange24h: -2,
			MarketCap: 1.3e12, MarketCapRank: 1, TotalVolume: 3e10, VolatilityScore: 6e10},
		{CoinID: "quiet", Name: "Quiet", Symbol: "qt", CurrentPrice: 0.5},
	}, assets)
}

type fakeExtract struct {
	coins []Coin
	err   error
}

func (f fakeExtract) Extract(context.Context) ([]Coin, error) { return f.coins, f.err }

type fakeLoader struct {
	assets []market.AssetRecord
	at     time.Time
	err    error
}

func (f *fakeLoader) Replace(_ context.Context, assets []market.AssetRecord, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.assets, f.at = assets, at
	return nil
}

func TestPipelineRunOnce(t *testing.T) {
	ts := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	rank := 1
	coins := []Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: f64(67000), MarketCapRank: &rank},
		{ID: "ghost", Symbol: "gst", Name: "Ghost"},
	}
	archive := store.NewParquetArchive(t.TempDir())
	loader := &fakeLoader{}

	p := NewPipeline(fakeExtract{coins: coins}, archive, loader, time.Minute, quietLog())
	p.now = func() time.Time { return ts }
	var hooked []Load
	p.OnLoad(func(l Load) { hooked = append(hooked, l) })

	res, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, 1, res.Dropped)
	require.Equal(t, ts, loader.at)
	require.Len(t, loader.assets, 1)
	require.Equal(t, []Load{res}, hooked)

	// The archive keeps the raw extraction, including the dropped coin.
	raw, err := archive.ReadSnapshot(context.Background(), res.ArchivePath)
	require.NoError(t, err)
	require.Len(t, raw, 2)
}

func TestPipelineRunOnceFailures(t *testing.T) {
	boom := errors.New("boom")

	p := NewPipeline(fakeExtract{err: boom}, nil, &fakeLoader{}, time.Minute, quietLog())
	_, err := p.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)

	p = NewPipeline(fakeExtract{coins: []Coin{{ID: "ghost"}}}, nil, &fakeLoader{}, time.Minute, quietLog())
	_, err = p.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrNoData)

	called := false
	p = NewPipeline(fakeExtract{coins: []Coin{{ID: "a", CurrentPrice: f64(1)}}}, nil, &fakeLoader{err: boom}, time.Minute, quietLog())
	p.OnLoad(func(Load) { called = true })
	_, err = p.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	require.False(t, called, "hook must not fire on a failed load")
}

func TestPipelineRunStopsOnCancel(t *testing.T) {
	loader := &fakeLoader{}
	p := NewPipeline(fakeExtract{coins: []Coin{{ID: "a", CurrentPrice: f64(1)}}}, nil, loader, time.Hour, quietLog())
	ctx, cancel := context.WithCancel(context.Background())
	loaded := make(chan struct{}, 1)
	p.OnLoad(func(Load) { loaded <- struct{}{} })

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	<-loaded
	cancel()
	require.NoError(t, <-done)
}
