package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runMerge(args []string) int {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
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

	service, store := newArchiveService(cfg, logger)
	if err := store.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare data directory: %v\n", err)
		return 1
	}

	result := service.RunCycle()
	fmt.Printf("status=%s new_documents=%d updated_bodies=%s\n",
		result.Status, result.NewDocuments, strings.Join(result.UpdatedBodies, ","))
	for _, saveErr := range result.SaveErrors {
		fmt.Fprintf(os.Stderr, "save error: %s\n", saveErr)
	}

	if result.Status == archive.CycleStatusPartial {
		return 1
	}
	return 0
}
