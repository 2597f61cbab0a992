package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cryptointel/internal/market"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var _ SnapshotStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS crypto_market (
	coin_id          TEXT PRIMARY KEY,
	symbol           TEXT NOT NULL,
	name             TEXT NOT NULL,
	current_price    REAL NOT NULL,
	market_cap       REAL NOT NULL,
	total_volume     REAL NOT NULL,
	price_change_24h REAL NOT NULL,
	market_cap_rank  INTEGER NOT NULL,
	volatility_score REAL NOT NULL,
	extracted_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crypto_market_extracted_at ON crypto_market (extracted_at);
`

const selectCols = `coin_id, symbol, name, current_price, market_cap, total_volume,
	price_change_24h, market_cap_rank, volatility_score`

// SQLiteStore implements SnapshotStore on the crypto_market table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the crypto_market table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Replace deletes the previous snapshot and inserts assets in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, assets []market.AssetRecord, extractedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM crypto_market`); err != nil {
		return fmt.Errorf("clearing crypto_market: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO crypto_market (`+selectCols+`, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (coin_id) DO UPDATE SET
			symbol = excluded.symbol,
			name = excluded.name,
			current_price = excluded.current_price,
			market_cap = excluded.market_cap,
			total_volume = excluded.total_volume,
			price_change_24h = excluded.price_change_24h,
			market_cap_rank = excluded.market_cap_rank,
			volatility_score = excluded.volatility_score,
			extracted_at = excluded.extracted_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := extractedAt.UnixMilli()
	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx, a.CoinID, a.Symbol, a.Name, a.CurrentPrice,
			a.MarketCap, a.TotalVolume, a.PriceChange24h, a.MarketCapRank,
			a.VolatilityScore, ts); err != nil {
			return fmt.Errorf("inserting %s: %w", a.CoinID, err)
		}
	}
	return tx.Commit()
}

// Assets returns all rows ordered by market cap descending.
func (s *SQLiteStore) Assets(ctx context.Context) ([]market.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+` FROM crypto_market
		ORDER BY market_cap DESC, coin_id`)
	if err != nil {
		return nil, err
	}
	return scanAssets(rows)
}

// Search matches q against coin_id, name and symbol. Exact coin_id matches
// sort first, the rest by market cap.
func (s *SQLiteStore) Search(ctx context.Context, q string) ([]market.AssetRecord, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+` FROM crypto_market
		WHERE instr(lower(coin_id), ?) > 0
		   OR instr(lower(name), ?) > 0
		   OR instr(lower(symbol), ?) > 0
		ORDER BY (lower(coin_id) = ?) DESC, market_cap DESC, coin_id`, q, q, q, q)
	if err != nil {
		return nil, err
	}
	return scanAssets(rows)
}

// LastExtracted returns the max extracted_at, or ErrEmpty when the table is
// empty.
func (s *SQLiteStore) LastExtracted(ctx context.Context) (time.Time, error) {
	var ms sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(extracted_at) FROM crypto_market`).Scan(&ms)
	if err != nil {
		return time.Time{}, err
	}
	if !ms.Valid {
		return time.Time{}, ErrEmpty
	}
	return time.UnixMilli(ms.Int64).UTC(), nil
}

func scanAssets(rows *sql.Rows) ([]market.AssetRecord, error) {
	defer rows.Close()
	var out []market.AssetRecord
	for rows.Next() {
		var a market.AssetRecord
		if err := rows.Scan(&a.CoinID, &a.Symbol, &a.Name, &a.CurrentPrice, &a.MarketCap,
			&a.TotalVolume, &a.PriceChange24h, &a.MarketCapRank, &a.VolatilityScore); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading crypto_market: %w", err)
	}
	return out, nil
}
