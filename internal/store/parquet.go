package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

var _ Archive = (*ParquetArchive)(nil)

// ParquetArchive implements Archive with one Parquet file per extraction.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates a ParquetArchive rooted at the given directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// RawCoin is the Parquet schema for one coin of an upstream extraction.
// Fields mirror the CoinGecko /coins/markets document.
type RawCoin struct {
	ID                       string  `parquet:"id"`
	Symbol                   string  `parquet:"symbol"`
	Name                     string  `parquet:"name"`
	CurrentPrice             float64 `parquet:"current_price"`
	MarketCap                float64 `parquet:"market_cap"`
	MarketCapRank            int64   `parquet:"market_cap_rank"`
	TotalVolume              float64 `parquet:"total_volume"`
	High24h                  float64 `parquet:"high_24h"`
	Low24h                   float64 `parquet:"low_24h"`
	PriceChange24h           float64 `parquet:"price_change_24h"`
	PriceChangePercentage24h float64 `parquet:"price_change_percentage_24h"`
	LastUpdated              string  `parquet:"last_updated"`
	ExtractedAt              int64   `parquet:"extracted_at,timestamp(millisecond)"` // Unix ms
}

// WriteSnapshot writes coins to <DataDir>/<YYYY-MM-DD>/<HHMMSS>.parquet. A
// second write within the same second replaces the first.
func (a *ParquetArchive) WriteSnapshot(_ context.Context, extractedAt time.Time, coins []RawCoin) (string, error) {
	ms := extractedAt.UnixMilli()
	records := make([]RawCoin, len(coins))
	for i, c := range coins {
		c.ExtractedAt = ms
		records[i] = c
	}
	path := a.snapshotPath(extractedAt)
	if err := writeParquetFile(path, records); err != nil {
		return "", fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return path, nil
}

// ReadSnapshot reads one archived extraction.
func (a *ParquetArchive) ReadSnapshot(_ context.Context, path string) ([]RawCoin, error) {
	records, err := readParquetFile[RawCoin](path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return records, nil
}

// ListSnapshots lists the archive files written on day (UTC).
func (a *ParquetArchive) ListSnapshots(_ context.Context, day time.Time) ([]string, error) {
	dir := a.dayDir(day)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// dayDir returns <DataDir>/<YYYY-MM-DD>.
func (a *ParquetArchive) dayDir(t time.Time) string {
	return filepath.Join(a.DataDir, t.UTC().Format("2006-01-02"))
}

// snapshotPath returns <DataDir>/<YYYY-MM-DD>/<HHMMSS>.parquet.
func (a *ParquetArchive) snapshotPath(t time.Time) string {
	return filepath.Join(a.dayDir(t), t.UTC().Format("150405")+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
