package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runEmail(args []string) int {
	fs := flag.NewFlagSet("email", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

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

	store := archive.NewStore(cfg.DataDir, logger)
	batch, err := store.LoadBatch()
	if err != nil {
		if errors.Is(err, archive.ErrNoBatch) {
			fmt.Println("no current batch, nothing to report")
			return 0
		}
		fmt.Fprintf(os.Stderr, "Failed to load current batch: %v\n", err)
		return 1
	}

	result := archive.CycleResult{
		Status:       archive.CycleStatusSuccess,
		NewDocuments: archive.CountDocuments(batch),
	}
	if err := newReporter(cfg, logger).Send(batch, result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to send report: %v\n", err)
		return 1
	}

	fmt.Printf("reported documents=%d\n", result.NewDocuments)
	return 0
}
