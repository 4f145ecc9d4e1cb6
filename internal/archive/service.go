package archive

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	CycleStatusSuccess = "success"
	CycleStatusNoBatch = "no_batch"
	CycleStatusPartial = "partial"
)

// CycleResult is the structured outcome of one merge cycle, consumed by the
// CLI, the run ledger, and the API trigger endpoint.
type CycleResult struct {
	Status        string   `json:"status"`
	NewDocuments  int      `json:"new_documents"`
	UpdatedBodies []string `json:"updated_bodies"`
	SaveErrors    []string `json:"save_errors,omitempty"`
}

// Service runs the load → merge → sort → stats → partition → save cycle.
// One cycle runs to completion before the next may start; invocations are not
// safe against each other and the caller serializes them.
type Service struct {
	store  *Store
	merger *Merger
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store *Store, merger *Merger, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		merger: merger,
		logger: logger,
		now:    merger.Clock(),
	}
}

// RunCycle merges the current batch into the historical archive and persists
// all derived outputs. It never fails the host process: every failure mode is
// folded into the returned result.
func (s *Service) RunCycle() CycleResult {
	batch, err := s.store.LoadBatch()
	if err != nil {
		// Only ErrNoBatch reaches here; load errors are recovered in the store.
		s.logger.Info().Msg("no current summaries to merge")
		return CycleResult{Status: CycleStatusNoBatch, UpdatedBodies: []string{}}
	}

	historical := s.store.LoadArchive()

	mergeResult := s.merger.Merge(batch, historical)
	SortArchive(historical)

	stats := ComputeStats(historical, s.now())
	monthly := PartitionByMonth(historical)

	saveResult := s.store.SaveAll(historical, stats, monthly)

	result := CycleResult{
		Status:        CycleStatusSuccess,
		NewDocuments:  mergeResult.NewDocuments,
		UpdatedBodies: mergeResult.UpdatedBodies,
	}
	if !saveResult.OK() {
		result.Status = CycleStatusPartial
		result.SaveErrors = saveResult.Errors()
	}

	s.logger.Info().
		Str("status", result.Status).
		Int("new_documents", result.NewDocuments).
		Int("updated_bodies", len(result.UpdatedBodies)).
		Int("total_documents", stats.TotalDocuments).
		Msg("archive merge cycle complete")

	return result
}
