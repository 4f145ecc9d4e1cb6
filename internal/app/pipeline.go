package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/config"
	"github.com/lcf-civic/civicsum/internal/fetch"
	"github.com/lcf-civic/civicsum/internal/ledger"
	"github.com/lcf-civic/civicsum/internal/report"
	"github.com/lcf-civic/civicsum/internal/summarize"
)

func newFetcher(cfg *config.Config, logger zerolog.Logger) *fetch.Fetcher {
	return fetch.New(logger, fetch.Options{
		BaseURL:     cfg.CityBaseURL,
		MeetingsURL: cfg.MeetingsURL,
		Bodies:      cfg.BodiesList(),
	})
}

func newSummarizer(cfg *config.Config, logger zerolog.Logger) *summarize.Summarizer {
	return summarize.New(logger, summarize.Options{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.OpenAIModel,
		MaxTokens:      cfg.MaxTokens,
		UseAI:          cfg.UseAISummaries,
		MaxCallsPerRun: cfg.MaxAPICallsPerRun,
		CallDelay:      cfg.APICallDelay,
	})
}

func newArchiveService(cfg *config.Config, logger zerolog.Logger) (*archive.Service, *archive.Store) {
	store := archive.NewStore(cfg.DataDir, logger)
	merger := archive.NewMerger(logger, archive.Options{BaseURL: cfg.CityBaseURL})
	return archive.NewService(store, merger, logger), store
}

func newReporter(cfg *config.Config, logger zerolog.Logger) *report.Reporter {
	return report.New(logger, report.Options{
		Server:   cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		To:       cfg.EmailTo,
		Enabled:  cfg.SendEmail,
	})
}

// runPipeline executes one full fetch → summarize → merge → email cycle and
// records it in the run ledger. A nil ledger skips run recording. The archive
// cycle itself never fails; only setup problems surface as errors.
func runPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger, led *ledger.Ledger, trigger string) (archive.CycleResult, error) {
	var runID int64
	if led != nil {
		id, err := led.Begin(trigger)
		if err != nil {
			logger.Warn().Err(err).Msg("run ledger begin failed, continuing without recording")
			led = nil
		} else {
			runID = id
		}
	}

	service, store := newArchiveService(cfg, logger)
	if err := store.EnsureDir(); err != nil {
		err = fmt.Errorf("prepare data directory: %w", err)
		finishRun(led, runID, ledger.StatusFailed, archive.CycleResult{}, err, logger)
		return archive.CycleResult{}, err
	}

	fetcher := newFetcher(cfg, logger)
	documents, err := fetcher.FetchAll(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("fetch failed, continuing with manual downloads only")
	}
	manual, err := fetch.ScanManualDownloads(cfg.DataDir, cfg.BodiesList(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("manual download scan failed")
	}
	documents = append(documents, manual...)
	if err := fetch.SaveMetadata(cfg.DataDir, documents, logger); err != nil {
		logger.Warn().Err(err).Msg("save fetch metadata failed")
	}

	summarizer := newSummarizer(cfg, logger)
	batch := summarizer.SummarizeAll(ctx, documents)
	if err := store.SaveBatch(batch); err != nil {
		err = fmt.Errorf("save current batch: %w", err)
		finishRun(led, runID, ledger.StatusFailed, archive.CycleResult{}, err, logger)
		return archive.CycleResult{}, err
	}

	result := service.RunCycle()

	if err := newReporter(cfg, logger).Send(batch, result); err != nil {
		logger.Warn().Err(err).Msg("email report failed")
	}

	finishRun(led, runID, ledgerStatus(result.Status), result, nil, logger)
	return result, nil
}

func finishRun(led *ledger.Ledger, runID int64, status string, result archive.CycleResult, runErr error, logger zerolog.Logger) {
	if led == nil {
		return
	}
	if err := led.Finish(runID, status, result.NewDocuments, result.UpdatedBodies, runErr); err != nil {
		logger.Warn().Err(err).Int64("run_id", runID).Msg("run ledger finish failed")
	}
}

func ledgerStatus(cycleStatus string) string {
	switch cycleStatus {
	case archive.CycleStatusSuccess:
		return ledger.StatusSuccess
	case archive.CycleStatusNoBatch:
		return ledger.StatusNoBatch
	case archive.CycleStatusPartial:
		return ledger.StatusPartial
	default:
		return ledger.StatusFailed
	}
}
