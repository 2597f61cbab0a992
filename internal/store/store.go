// Package store defines storage interfaces for the server side: the current
// market snapshot served by the HTTP API and the archive of raw extractions.
package store

import (
	"context"
	"errors"
	"time"

	"cryptointel/internal/market"
)

// ErrEmpty is returned when no snapshot has been loaded yet.
var ErrEmpty = errors.New("no snapshot loaded")

// SnapshotStore persists the latest transformed market snapshot.
type SnapshotStore interface {
	// Replace swaps the stored snapshot for assets, stamped with extractedAt.
	Replace(ctx context.Context, assets []market.AssetRecord, extractedAt time.Time) error

	// Assets returns every stored record ordered by market cap, largest first.
	Assets(ctx context.Context) ([]market.AssetRecord, error)

	// Search returns records whose coin id, name, or symbol contains q,
	// case-insensitively. A record whose coin id equals q comes first.
	Search(ctx context.Context, q string) ([]market.AssetRecord, error)

	// LastExtracted returns the newest extraction time, or ErrEmpty.
	LastExtracted(ctx context.Context) (time.Time, error)
}

// Archive keeps every raw extraction as it came from the upstream API.
type Archive interface {
	// WriteSnapshot persists one extraction and returns the file it wrote.
	WriteSnapshot(ctx context.Context, extractedAt time.Time, coins []RawCoin) (string, error)

	// ReadSnapshot loads a previously written extraction.
	ReadSnapshot(ctx context.Context, path string) ([]RawCoin, error)

	// ListSnapshots returns the archive files for one UTC day, oldest first.
	ListSnapshots(ctx context.Context, day time.Time) ([]string, error)
}
