package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	batchschema "github.com/lcf-civic/civicsum/schema"
)

const (
	BatchFileName   = "document_summaries.json"
	ArchiveFileName = "historical_summaries.json"
	StatsFileName   = "archive_stats.json"
)

// ErrNoBatch signals that no current batch exists — nothing to merge, as
// opposed to a batch that failed to load.
var ErrNoBatch = errors.New("no current batch file")

// Store reads and writes the archive's JSON files under one data directory.
// Every save is a whole-file overwrite; there is no partial patching and no
// cross-process locking, so concurrent cycles must be serialized by the
// caller.
type Store struct {
	dir    string
	logger zerolog.Logger
}

func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

// LoadArchive reads the historical archive. It fails soft: a missing file or
// unparseable content yields an empty archive and a log line, never an error.
func (s *Store) LoadArchive() Archive {
	raw, err := os.ReadFile(filepath.Join(s.dir, ArchiveFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info().Msg("no existing historical archive, starting empty")
		} else {
			s.logger.Warn().Err(err).Msg("failed to read historical archive, starting empty")
		}
		return make(Archive)
	}

	var a Archive
	if err := json.Unmarshal(raw, &a); err != nil {
		s.logger.Warn().Err(err).Msg("failed to parse historical archive, starting empty")
		return make(Archive)
	}
	if a == nil {
		a = make(Archive)
	}
	return a
}

// LoadBatch reads the current batch produced by the summarizer. A missing
// file returns ErrNoBatch; malformed content is recovered as an empty batch
// with a warning. The batch is schema-checked (advisory) and normalized once
// before it is returned.
func (s *Store) LoadBatch() (Archive, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, BatchFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoBatch
		}
		s.logger.Warn().Err(err).Msg("failed to read current batch, treating as empty")
		return make(Archive), nil
	}

	if err := batchschema.ValidateBatch(raw); err != nil {
		s.logger.Warn().Err(err).Msg("current batch does not match schema")
	}

	var batch Archive
	if err := json.Unmarshal(raw, &batch); err != nil {
		s.logger.Warn().Err(err).Msg("failed to parse current batch, treating as empty")
		return make(Archive), nil
	}
	if batch == nil {
		batch = make(Archive)
	}

	NormalizeBatch(batch)
	return batch, nil
}

// LoadStats reads the persisted statistics snapshot.
func (s *Store) LoadStats() (Stats, error) {
	var stats Stats
	raw, err := os.ReadFile(filepath.Join(s.dir, StatsFileName))
	if err != nil {
		return stats, fmt.Errorf("read %s: %w", StatsFileName, err)
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return stats, fmt.Errorf("parse %s: %w", StatsFileName, err)
	}
	return stats, nil
}

// LoadMonth reads one monthly partition file by its slug.
func (s *Store) LoadMonth(slug string) (Archive, error) {
	name := monthFileName(slug)
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var a Archive
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return a, nil
}

// SaveBatch writes the current batch file (the summarizer's output).
func (s *Store) SaveBatch(batch Archive) error {
	return s.writeJSON(BatchFileName, batch)
}

func (s *Store) SaveArchive(a Archive) error {
	return s.writeJSON(ArchiveFileName, a)
}

func (s *Store) SaveStats(stats Stats) error {
	return s.writeJSON(StatsFileName, stats)
}

// SaveMonthly writes one partition file per month. A single failed month does
// not stop the remaining months from being written.
func (s *Store) SaveMonthly(monthly map[string]Archive) error {
	var firstErr error
	for month, bodies := range monthly {
		if err := s.writeJSON(monthFileName(MonthSlug(month)), bodies); err != nil {
			s.logger.Error().Err(err).Str("month", month).Msg("failed to save monthly partition")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SaveResult carries per-file outcomes of one persistence pass. The three
// outputs are independent failure domains.
type SaveResult struct {
	ArchiveErr error
	StatsErr   error
	MonthlyErr error
}

func (r SaveResult) OK() bool {
	return r.ArchiveErr == nil && r.StatsErr == nil && r.MonthlyErr == nil
}

// Errors returns the failed saves as strings, for result reporting.
func (r SaveResult) Errors() []string {
	var out []string
	if r.ArchiveErr != nil {
		out = append(out, fmt.Sprintf("archive: %v", r.ArchiveErr))
	}
	if r.StatsErr != nil {
		out = append(out, fmt.Sprintf("stats: %v", r.StatsErr))
	}
	if r.MonthlyErr != nil {
		out = append(out, fmt.Sprintf("monthly: %v", r.MonthlyErr))
	}
	return out
}

// SaveAll persists archive, statistics, and monthly partitions, attempting
// every file even when an earlier one fails.
func (s *Store) SaveAll(a Archive, stats Stats, monthly map[string]Archive) SaveResult {
	var result SaveResult

	if result.ArchiveErr = s.SaveArchive(a); result.ArchiveErr != nil {
		s.logger.Error().Err(result.ArchiveErr).Msg("failed to save historical archive")
	}
	if result.StatsErr = s.SaveStats(stats); result.StatsErr != nil {
		s.logger.Error().Err(result.StatsErr).Msg("failed to save archive stats")
	}
	if result.MonthlyErr = s.SaveMonthly(monthly); result.MonthlyErr != nil {
		s.logger.Error().Err(result.MonthlyErr).Msg("failed to save monthly partitions")
	}

	return result
}

func (s *Store) writeJSON(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.logger.Debug().Str("file", name).Msg("saved data file")
	return nil
}

func monthFileName(slug string) string {
	return "month_" + slug + ".json"
}
