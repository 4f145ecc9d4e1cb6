package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/ledger"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runSchedule(args []string) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	spec := fs.String("spec", "", "Cron schedule (overrides SCHEDULE_SPEC)")
	runTimeout := fs.Duration("run-timeout", 15*time.Minute, "Timeout for each scheduled run")
	immediate := fs.Bool("immediate", false, "Run one cycle immediately on startup")

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

	schedule := *spec
	if schedule == "" {
		schedule = cfg.ScheduleSpec
	}

	led, err := ledger.Open(cfg.ResolvedLedgerPath(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("run ledger unavailable, continuing without recording")
		led = nil
	} else {
		defer led.Close()
	}

	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), *runTimeout)
		defer cancel()

		result, err := runPipeline(ctx, cfg, logger, led, "scheduled")
		if err != nil {
			logger.Error().Err(err).Msg("scheduled run failed")
			return
		}
		logger.Info().
			Str("status", result.Status).
			Int("new_documents", result.NewDocuments).
			Strs("updated_bodies", result.UpdatedBodies).
			Msg("scheduled run finished")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, job); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid schedule %q: %v\n", schedule, err)
		return 2
	}

	if *immediate {
		job()
	}

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	<-sigCh

	logger.Info().Msg("scheduler stopping, waiting for running job")
	<-c.Stop().Done()
	return 0
}
