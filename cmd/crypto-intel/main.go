package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cryptointel/internal/config"
	"cryptointel/internal/feed"
	"cryptointel/internal/market"
	"cryptointel/internal/news"
	"cryptointel/internal/tui"
	"cryptointel/internal/util"
)

func main() {
	cfgPath := "config/crypto-intel.yaml"
	if p := os.Getenv("CRYPTO_INTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the dashboard, so logs go to a file.
	logPath := fmt.Sprintf("/tmp/crypto-intel-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logFile)

	client := feed.NewClient(cfg.Client.BaseURL, cfg.Client.Timeout)
	logger.Info("dashboard starting", "base_url", client.BaseURL(),
		"sync", cfg.Sync.Interval, "rotation", cfg.Rotation.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := tui.Options{
		Source:           client,
		Store:            market.NewStore(),
		SyncInterval:     cfg.Sync.Interval,
		RotationInterval: cfg.Rotation.Interval,
		Logger:           logger,
	}

	if cfg.HasAlpaca() {
		opts.News = news.NewAlpaca(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
		logger.Info("alpaca news enabled")
	}

	if cfg.Client.Notify {
		notes := make(chan feed.Notification, 1)
		n := feed.NewNotifier(client.BaseURL(), logger)
		go n.Run(ctx, func(msg feed.Notification) {
			// Keep only the newest pending notification.
			select {
			case notes <- msg:
			default:
			}
		})
		opts.Notifications = notes
		logger.Info("snapshot notifications enabled", "url", n.URL())
	}

	p := tea.NewProgram(
		tui.New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
