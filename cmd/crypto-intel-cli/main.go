package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cryptointel/internal/api"
	"cryptointel/internal/config"
	"cryptointel/internal/dashboard"
	"cryptointel/internal/feed"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: crypto-intel-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version       Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  status        Show crypto-intel-server health\n")
		fmt.Fprintf(os.Stderr, "  summary       Print the market summary\n")
		fmt.Fprintf(os.Stderr, "  search <q>    Search coins by name, symbol or id\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	cfgPath := "config/crypto-intel.yaml"
	if p := os.Getenv("CRYPTO_INTEL_CONFIG"); p != "" {
		cfgPath = p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("crypto-intel-cli %s\n", version)

	case "status":
		err = withConfig(cfgPath, func(cfg *config.Config) error {
			status, err := api.CheckHealth(ctx, cfg.Client.GRPCAddr)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", api.ServiceName, status)
			return nil
		})

	case "summary":
		err = withConfig(cfgPath, func(cfg *config.Config) error {
			sum, err := feed.NewClient(cfg.Client.BaseURL, cfg.Client.Timeout).Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Total market cap  %s\n", dashboard.FormatTrillions(sum.TotalMarketCap))
			fmt.Printf("Average price     %s\n", dashboard.FormatUSD(sum.AvgPrice))
			fmt.Printf("Highest gainer    %s %s\n", strings.ToUpper(sum.HighestGainer.Symbol), dashboard.FormatChange(sum.HighestGainer.Value))
			fmt.Printf("Most volatile     %s %s\n", strings.ToUpper(sum.MostVolatile.Symbol), dashboard.FormatScore(sum.MostVolatile.Value))
			fmt.Printf("Last updated      %s\n", sum.LastUpdated.Local().Format(time.DateTime))
			return nil
		})

	case "search":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "search: missing query")
			os.Exit(1)
		}
		q := strings.Join(os.Args[2:], " ")
		err = withConfig(cfgPath, func(cfg *config.Config) error {
			assets, err := feed.NewClient(cfg.Client.BaseURL, cfg.Client.Timeout).Lookup(ctx, q)
			if errors.Is(err, feed.ErrNotFound) {
				fmt.Printf("no coins match %q\n", q)
				return nil
			}
			if err != nil {
				return err
			}
			for _, a := range assets {
				fmt.Printf("%4d  %-20s %-6s %14s %9s\n", a.MarketCapRank, a.CoinID,
					strings.ToUpper(a.Symbol), dashboard.FormatUSD(a.CurrentPrice),
					dashboard.FormatChange(a.PriceChange24h))
			}
			return nil
		})

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func withConfig(path string, fn func(*config.Config) error) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return fn(cfg)
}
