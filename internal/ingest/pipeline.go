package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cryptointel/internal/market"
	"cryptointel/internal/store"
)

// ErrNoData is returned when an extraction leaves nothing to load.
var ErrNoData = errors.New("no data to load")

// Extract is the upstream side of the pipeline.
type Extract interface {
	Extract(ctx context.Context) ([]Coin, error)
}

// Loader receives the transformed snapshot.
type Loader interface {
	Replace(ctx context.Context, assets []market.AssetRecord, extractedAt time.Time) error
}

// Load describes one successful pipeline run.
type Load struct {
	ExtractedAt time.Time
	Count       int
	Dropped     int
	ArchivePath string
}

// Pipeline runs extract, archive, transform and load on a fixed interval.
type Pipeline struct {
	src      Extract
	archive  store.Archive // optional
	load     Loader
	interval time.Duration
	log      *slog.Logger
	onLoad   func(Load)
	now      func() time.Time
}

// NewPipeline wires a pipeline. archive may be nil.
func NewPipeline(src Extract, archive store.Archive, load Loader, interval time.Duration, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		src:      src,
		archive:  archive,
		load:     load,
		interval: interval,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnLoad registers fn to be called after every successful load.
func (p *Pipeline) OnLoad(fn func(Load)) { p.onLoad = fn }

// Name returns the pipeline identifier.
func (p *Pipeline) Name() string { return "coingecko" }

// RunOnce performs one extraction and load. An archive failure is logged and
// does not stop the load.
func (p *Pipeline) RunOnce(ctx context.Context) (Load, error) {
	coins, err := p.src.Extract(ctx)
	if err != nil {
		return Load{}, err
	}
	ts := p.now()
	res := Load{ExtractedAt: ts}

	if p.archive != nil && len(coins) > 0 {
		raw := make([]store.RawCoin, len(coins))
		for i, c := range coins {
			raw[i] = c.Raw()
		}
		path, err := p.archive.WriteSnapshot(ctx, ts, raw)
		if err != nil {
			p.log.Warn("archiving extraction failed", "error", err)
		} else {
			res.ArchivePath = path
		}
	}

	assets, dropped := Transform(coins)
	res.Count, res.Dropped = len(assets), dropped
	if dropped > 0 {
		p.log.Warn("dropped incomplete coins", "dropped", dropped)
	}
	if len(assets) == 0 {
		return res, ErrNoData
	}

	if err := p.load.Replace(ctx, assets, ts); err != nil {
		return res, fmt.Errorf("loading snapshot: %w", err)
	}
	p.log.Info("loaded snapshot", "count", res.Count, "extracted_at", ts, "archive", res.ArchivePath)
	if p.onLoad != nil {
		p.onLoad(res)
	}
	return res, nil
}

// Run executes RunOnce immediately and then every interval until ctx is
// cancelled. Failed runs are logged and the schedule continues.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("pipeline started", "name", p.Name(), "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.log.Error("pipeline run failed", "name", p.Name(), "error", err)
		}
		select {
		case <-ctx.Done():
			p.log.Info("pipeline stopped", "name", p.Name())
			return nil
		case <-ticker.C:
		}
	}
}
