package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"cryptointel/internal/market"
	"cryptointel/internal/store"
)

const errNoData = "No data available"

// Server serves the market API from a SnapshotStore.
type Server struct {
	store store.SnapshotStore
	hub   *Hub
	log   *slog.Logger
}

// NewServer creates the API server. hub may be nil, which disables /api/ws.
func NewServer(s store.SnapshotStore, hub *Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: s, hub: hub, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/market-data", s.handleMarketData)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	if s.hub != nil {
		mux.HandleFunc("GET /api/ws", s.hub.ServeWS)
	}
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleSummary aggregates the stored snapshot. An empty store answers 200
// with an error document, which clients treat as a failed read.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var (
		assets []market.AssetRecord
		last   time.Time
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		assets, err = s.store.Assets(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		last, err = s.store.LastExtracted(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrEmpty) {
			writeError(w, http.StatusOK, errNoData)
			return
		}
		s.log.Error("reading snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "reading snapshot failed")
		return
	}
	if len(assets) == 0 {
		writeError(w, http.StatusOK, errNoData)
		return
	}
	writeJSON(w, Summarize(assets, last))
}

func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.Assets(r.Context())
	if err != nil {
		s.log.Error("reading snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "reading snapshot failed")
		return
	}
	if len(assets) == 0 {
		writeError(w, http.StatusOK, errNoData)
		return
	}
	writeJSON(w, assets)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	assets, err := s.store.Search(r.Context(), q)
	if err != nil {
		s.log.Error("searching snapshot", "q", q, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if len(assets) == 0 {
		writeError(w, http.StatusNotFound, "Coin not found")
		return
	}
	writeJSON(w, assets)
}

// Summarize computes the summary document for a non-empty snapshot. Sums and
// means are accumulated in decimal; ties for the leaders go to the earlier
// record.
func Summarize(assets []market.AssetRecord, lastUpdated time.Time) SummaryJSON {
	total := decimal.Zero
	prices := decimal.Zero
	gainer, volatile := 0, 0
	for i, a := range assets {
		total = total.Add(decimal.NewFromFloat(a.MarketCap))
		prices = prices.Add(decimal.NewFromFloat(a.CurrentPrice))
		if a.PriceChange24h > assets[gainer].PriceChange24h {
			gainer = i
		}
		if a.VolatilityScore > assets[volatile].VolatilityScore {
			volatile = i
		}
	}
	avg := prices.Div(decimal.NewFromInt(int64(len(assets))))

	g, v := assets[gainer], assets[volatile]
	return SummaryJSON{
		TotalMarketCap: total.InexactFloat64(),
		HighestGainer:  GainerJSON{CoinID: g.CoinID, Symbol: g.Symbol, Name: g.Name, PriceChange24h: g.PriceChange24h},
		MostVolatile:   VolatileJSON{CoinID: v.CoinID, Symbol: v.Symbol, Name: v.Name, VolatilityScore: v.VolatilityScore},
		AvgPrice:       avg.InexactFloat64(),
		LastUpdated:    lastUpdated.UTC().Format(time.RFC3339),
	}
}
