package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/ledger"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 15*time.Minute, "Command timeout")

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

	led, err := ledger.Open(cfg.ResolvedLedgerPath(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("run ledger unavailable, continuing without recording")
		led = nil
	} else {
		defer led.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := runPipeline(ctx, cfg, logger, led, "manual")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		return 1
	}

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
