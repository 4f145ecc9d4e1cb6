package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/fetch"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fetcher := newFetcher(cfg, logger)
	documents, err := fetcher.FetchAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("fetch failed")
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		return 1
	}

	manual, err := fetch.ScanManualDownloads(cfg.DataDir, cfg.BodiesList(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manual download scan failed: %v\n", err)
	}
	documents = append(documents, manual...)

	if err := fetch.SaveMetadata(cfg.DataDir, documents, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save fetch metadata: %v\n", err)
		return 1
	}

	fmt.Printf("fetched=%d manual=%d\n", len(documents)-len(manual), len(manual))
	return 0
}
