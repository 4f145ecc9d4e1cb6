// Package ledger records processing-cycle history in a local sqlite database
// so operators can see when cycles ran and what they changed. The ledger is
// observability only; the archive itself lives in JSON files and never
// depends on it.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lcf-civic/civicsum/internal/globaltime"
)

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusNoBatch = "no_batch"
	StatusFailed  = "failed"
)

// Run is one processing cycle.
type Run struct {
	RunID         int64      `gorm:"column:run_id;primaryKey;autoIncrement" json:"run_id"`
	Trigger       string     `gorm:"column:trigger;type:text;not null" json:"trigger"`
	StartedAt     time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt    *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	Status        string     `gorm:"column:status;type:text;not null;default:running" json:"status"`
	NewDocuments  int        `gorm:"column:new_documents;not null;default:0" json:"new_documents"`
	UpdatedBodies string     `gorm:"column:updated_bodies;type:text;not null;default:''" json:"updated_bodies"`
	ErrorMessage  *string    `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
}

func (Run) TableName() string { return "processing_runs" }

// Ledger wraps the sqlite run-history database.
type Ledger struct {
	gdb    *gorm.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the ledger database and migrates its schema.
func Open(path string, logger zerolog.Logger) (*Ledger, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return globaltime.UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	if err := gdb.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}

	return &Ledger{gdb: gdb, logger: logger}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.gdb == nil {
		return nil
	}
	sqlDB, err := l.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Begin inserts a running row for a new cycle and returns its ID.
func (l *Ledger) Begin(trigger string) (int64, error) {
	if l == nil || l.gdb == nil {
		return 0, fmt.Errorf("ledger is not initialized")
	}
	run := Run{
		Trigger:   strings.TrimSpace(trigger),
		StartedAt: globaltime.UTC(),
		Status:    StatusRunning,
	}
	if err := l.gdb.Create(&run).Error; err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return run.RunID, nil
}

// Finish closes out a run with its outcome.
func (l *Ledger) Finish(runID int64, status string, newDocuments int, updatedBodies []string, runErr error) error {
	if l == nil || l.gdb == nil {
		return fmt.Errorf("ledger is not initialized")
	}

	finishedAt := globaltime.UTC()
	updates := map[string]any{
		"finished_at":    &finishedAt,
		"status":         status,
		"new_documents":  newDocuments,
		"updated_bodies": strings.Join(updatedBodies, ", "),
	}
	if runErr != nil {
		message := runErr.Error()
		updates["error_message"] = &message
	}

	res := l.gdb.Model(&Run{}).Where("run_id = ?", runID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("finish run %d: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish run %d: not found", runID)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (l *Ledger) Recent(limit int) ([]Run, error) {
	if l == nil || l.gdb == nil {
		return nil, fmt.Errorf("ledger is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	var runs []Run
	if err := l.gdb.Order("run_id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
