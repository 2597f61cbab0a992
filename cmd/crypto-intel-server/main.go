package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"cryptointel/internal/api"
	"cryptointel/internal/config"
	"cryptointel/internal/httpapi"
	"cryptointel/internal/ingest"
	"cryptointel/internal/store"
	"cryptointel/internal/util"
)

func main() {
	cfgPath := "config/crypto-intel.yaml"
	if p := os.Getenv("CRYPTO_INTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite %s: %v", cfg.Storage.SQLitePath, err)
	}
	defer db.Close()
	archive := store.NewParquetArchive(cfg.Storage.ArchiveDir)

	hub := httpapi.NewHub(logger)
	srv := api.NewServer(cfg, httpapi.NewServer(db, hub, logger).Handler(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A snapshot left by a previous run is servable immediately.
	if _, err := db.LastExtracted(ctx); err == nil {
		srv.SetServing(true)
	}

	extractor := ingest.NewExtractor(cfg.Ingest.APIURL, cfg.Ingest.PerPage,
		util.NewRateLimiter(cfg.Ingest.RateLimitPerMin), cfg.Ingest.MaxAttempts, logger)
	pipeline := ingest.NewPipeline(extractor, archive, db, cfg.Ingest.Interval, logger)
	pipeline.OnLoad(func(l ingest.Load) {
		srv.SetServing(true)
		if err := hub.Broadcast(httpapi.NewSnapshotEvent(l.ExtractedAt, l.Count)); err != nil {
			logger.Warn("broadcasting snapshot", "error", err)
		}
	})

	logger.Info("crypto-intel-server starting",
		"host", cfg.Server.Host, "port", cfg.Server.Port, "grpc_port", cfg.Server.GRPCPort,
		"sqlite", cfg.Storage.SQLitePath, "archive", cfg.Storage.ArchiveDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error { return pipeline.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("crypto-intel-server stopped")
}
