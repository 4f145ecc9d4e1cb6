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

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/cli"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/httpapi"
	"github.com/lcf-civic/civicsum/internal/ledger"
	"github.com/lcf-civic/civicsum/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8090, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	triggerTimeout := fs.Duration("trigger-timeout", 15*time.Minute, "Timeout for API-triggered runs")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
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
		logger.Error().Err(err).Msg("data directory is not usable")
		fmt.Fprintf(os.Stderr, "Data directory is not usable: %v\n", err)
		return 1
	}

	led, err := ledger.Open(cfg.ResolvedLedgerPath(), logger)
	var runs httpapi.RunLister
	if err != nil {
		logger.Warn().Err(err).Msg("run ledger unavailable, /runs will be disabled")
	} else {
		defer led.Close()
		runs = led
	}

	trigger := func() archive.CycleResult {
		ctx, cancel := context.WithTimeout(context.Background(), *triggerTimeout)
		defer cancel()

		result, err := runPipeline(ctx, cfg, logger, led, "api")
		if err != nil {
			logger.Error().Err(err).Msg("api-triggered run failed")
			return archive.CycleResult{Status: archive.CycleStatusPartial, SaveErrors: []string{err.Error()}}
		}
		return result
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(store, runs, trigger, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		Environment:     cfg.Environment,
		AIConfigured:    cfg.UseAISummaries && cfg.OpenAIAPIKey != "",
		EmailConfigured: cfg.SendEmail,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
