package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/fetch"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runSummarize(args []string) int {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")

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

	metadata, err := fetch.LoadMetadata(cfg.DataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load fetch metadata: %v\n", err)
		return 1
	}
	if len(metadata.Documents) == 0 {
		fmt.Println("no fetched documents to summarize, run fetch first")
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summarizer := newSummarizer(cfg, logger)
	batch := summarizer.SummarizeAll(ctx, metadata.Documents)

	store := archive.NewStore(cfg.DataDir, logger)
	if err := store.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare data directory: %v\n", err)
		return 1
	}
	if err := store.SaveBatch(batch); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save current batch: %v\n", err)
		return 1
	}

	fmt.Printf("summarized=%d bodies=%d\n", archive.CountDocuments(batch), len(batch))
	return 0
}
