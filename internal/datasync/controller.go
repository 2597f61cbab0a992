// Package datasync refreshes the market store from the network source.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"cryptointel/internal/feed"
	"cryptointel/internal/market"
)

// Writer is the write access the controller needs. Only the controller is
// handed the asset and summary writers.
type Writer interface {
	market.AssetWriter
	market.SummaryWriter
}

// Result reports what one refresh cycle applied. A part whose read failed
// keeps its previous value. A part whose write lost to a newer cycle is
// Superseded, not failed.
type Result struct {
	Seq            uint64
	AssetsApplied  bool
	SummaryApplied bool
	Superseded     bool
	AssetCount     int
	AssetsErr      error
	SummaryErr     error
}

// Controller pulls the summary and the asset collection and applies them.
type Controller struct {
	src feed.Source
	w   Writer
	log *slog.Logger
	seq atomic.Uint64
}

// New creates a controller that reads from src and writes to w.
func New(src feed.Source, w Writer, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{src: src, w: w, log: log}
}

// Refresh performs both reads concurrently and applies each success
// independently. Neither read cancels the other; failures are logged and
// reported in the Result, never returned as an error.
func (c *Controller) Refresh(ctx context.Context) Result {
	res := Result{Seq: c.seq.Add(1)}

	var (
		summary market.SummaryRecord
		assets  []market.AssetRecord
	)

	// Plain Group, not WithContext: a failed read must not cancel its sibling.
	var g errgroup.Group
	g.Go(func() error {
		s, err := c.src.Summary(ctx)
		if err != nil {
			res.SummaryErr = err
			return nil
		}
		summary = s
		return nil
	})
	g.Go(func() error {
		a, err := c.src.Assets(ctx)
		if err != nil {
			res.AssetsErr = err
			return nil
		}
		assets = a
		return nil
	})
	_ = g.Wait()

	if res.SummaryErr == nil {
		err := c.w.ReplaceSummary(res.Seq, summary)
		switch {
		case errors.Is(err, market.ErrStale):
			res.Superseded = true
			c.log.Debug("summary superseded", "seq", res.Seq)
		case err != nil:
			res.SummaryErr = err
		default:
			res.SummaryApplied = true
		}
	}
	if res.AssetsErr == nil {
		err := c.w.ReplaceAssets(res.Seq, assets)
		switch {
		case errors.Is(err, market.ErrStale):
			res.Superseded = true
			c.log.Debug("assets superseded", "seq", res.Seq)
		case err != nil:
			res.AssetsErr = err
		default:
			res.AssetsApplied = true
			res.AssetCount = len(assets)
		}
	}

	if res.SummaryErr != nil {
		c.log.Warn("summary refresh failed", "seq", res.Seq, "error", res.SummaryErr)
	}
	if res.AssetsErr != nil {
		c.log.Warn("asset refresh failed", "seq", res.Seq, "error", res.AssetsErr)
	}
	c.log.Debug("refresh complete",
		"seq", res.Seq,
		"assets", res.AssetsApplied,
		"summary", res.SummaryApplied,
		"count", res.AssetCount,
	)
	return res
}

// Err folds the per-part errors into one, or nil when both parts applied.
func (r Result) Err() error {
	switch {
	case r.AssetsErr != nil && r.SummaryErr != nil:
		return fmt.Errorf("assets: %w; summary: %w", r.AssetsErr, r.SummaryErr)
	case r.AssetsErr != nil:
		return fmt.Errorf("assets: %w", r.AssetsErr)
	case r.SummaryErr != nil:
		return fmt.Errorf("summary: %w", r.SummaryErr)
	}
	return nil
}
