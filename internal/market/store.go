package market

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrStale is returned when a write carries a sequence number older than
	// (or equal to) one already applied for the same part of the store.
	ErrStale = errors.New("stale write")

	// ErrDuplicateCoinID is returned when a replacement collection contains
	// the same coin_id more than once.
	ErrDuplicateCoinID = errors.New("duplicate coin_id")
)

// Reader is the read-only view of the store handed to every component that
// is not a designated writer.
type Reader interface {
	Assets() []AssetRecord
	Summary() (SummaryRecord, bool)
	Find(coinID string) (AssetRecord, bool)
	Cursor() int
	Version() uint64
}

// AssetWriter replaces the asset collection. Held only by the sync controller.
type AssetWriter interface {
	ReplaceAssets(seq uint64, assets []AssetRecord) error
}

// SummaryWriter replaces the aggregate summary. Held only by the sync controller.
type SummaryWriter interface {
	ReplaceSummary(seq uint64, summary SummaryRecord) error
}

// CursorWriter moves the spotlight cursor. Held only by the rotation scheduler.
type CursorWriter interface {
	SetCursor(i int)
}

// Store is the single owned snapshot of the asset collection, the summary,
// and the spotlight cursor. Collections are swapped under the write lock so
// readers see either the old or the new slice, never a mix.
type Store struct {
	mu         sync.RWMutex
	assets     []AssetRecord
	index      map[string]int // coin_id -> position in assets
	summary    *SummaryRecord
	cursor     int
	assetSeq   uint64
	summarySeq uint64
	version    uint64
}

// Compile-time interface checks.
var (
	_ Reader        = (*Store)(nil)
	_ AssetWriter   = (*Store)(nil)
	_ SummaryWriter = (*Store)(nil)
	_ CursorWriter  = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
	}
}

// ReplaceAssets swaps in a new collection. The input is copied; the caller may
// reuse its slice. Returns ErrStale if a newer sequence was already applied and
// ErrDuplicateCoinID if coin_id is not unique; in both cases the current
// collection is left untouched.
func (s *Store) ReplaceAssets(seq uint64, assets []AssetRecord) error {
	index := make(map[string]int, len(assets))
	for i := range assets {
		if _, dup := index[assets[i].CoinID]; dup {
			return fmt.Errorf("replacing assets: %w: %q", ErrDuplicateCoinID, assets[i].CoinID)
		}
		index[assets[i].CoinID] = i
	}
	next := make([]AssetRecord, len(assets))
	copy(next, assets)

	s.mu.Lock()
	if seq <= s.assetSeq {
		last := s.assetSeq
		s.mu.Unlock()
		return fmt.Errorf("replacing assets: %w: seq %d, applied %d", ErrStale, seq, last)
	}
	s.assets = next
	s.index = index
	s.assetSeq = seq
	s.version++
	s.mu.Unlock()
	return nil
}

// ReplaceSummary swaps in a new summary unless a newer one was already applied.
func (s *Store) ReplaceSummary(seq uint64, summary SummaryRecord) error {
	s.mu.Lock()
	if seq <= s.summarySeq {
		last := s.summarySeq
		s.mu.Unlock()
		return fmt.Errorf("replacing summary: %w: seq %d, applied %d", ErrStale, seq, last)
	}
	s.summary = &summary
	s.summarySeq = seq
	s.version++
	s.mu.Unlock()
	return nil
}

// Assets returns a copy of the current collection in server order.
func (s *Store) Assets() []AssetRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AssetRecord, len(s.assets))
	copy(out, s.assets)
	return out
}

// Len returns the number of assets in the current collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// Summary returns the last applied summary, or false if none has been applied.
func (s *Store) Summary() (SummaryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return SummaryRecord{}, false
	}
	return *s.summary, true
}

// Find looks up an asset by coin_id in the current collection.
func (s *Store) Find(coinID string) (AssetRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[coinID]
	if !ok {
		return AssetRecord{}, false
	}
	return s.assets[i], true
}

// Cursor returns the spotlight cursor.
func (s *Store) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// SetCursor moves the spotlight cursor. Bounds are the rotation scheduler's
// responsibility.
func (s *Store) SetCursor(i int) {
	s.mu.Lock()
	s.cursor = i
	s.mu.Unlock()
}

// Version increments on every applied replacement of assets or summary.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
