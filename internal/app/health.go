package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/ledger"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
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
	if err := store.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Data directory is not usable: %v\n", err)
		return 1
	}
	probe := filepath.Join(cfg.DataDir, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Data directory is not writable: %v\n", err)
		return 1
	}
	_ = os.Remove(probe)

	led, err := ledger.Open(cfg.ResolvedLedgerPath(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run ledger is not usable: %v\n", err)
		return 1
	}
	defer led.Close()

	runs, err := led.Recent(1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run ledger query failed: %v\n", err)
		return 1
	}

	fmt.Printf("data_dir=%s ok\n", cfg.DataDir)
	fmt.Printf("ledger=%s ok\n", cfg.ResolvedLedgerPath())
	if len(runs) > 0 {
		fmt.Printf("last_run id=%d status=%s\n", runs[0].RunID, runs[0].Status)
	} else {
		fmt.Println("last_run none")
	}
	return 0
}
