package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stage run outcomes.
const (
	StatusStarted   = "started"
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// StageRun is one ledger entry for a pipeline stage execution. Entries are
// append-only; a stage records a new row per attempt rather than updating
// earlier ones.
type StageRun struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	RunID      string    `gorm:"size:36;index" json:"run_id"`
	Stage      string    `gorm:"size:16;index" json:"stage"`
	CustomerID string    `gorm:"size:20;index" json:"customer_id"`
	Status     string    `gorm:"size:16" json:"status"`
	Message    string    `gorm:"size:512" json:"message"`
	RowCount   int       `json:"row_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName keeps the table name in line with the warehouse naming scheme.
func (StageRun) TableName() string {
	return "pipeline_stage_runs"
}

// Recorder writes stage runs to the tracking database. The database is an
// optional dependency: with a nil connection every call is a logged no-op,
// so the pipeline never fails because the ledger is unavailable.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder migrates the ledger table and returns a recorder.
func NewRecorder(db *gorm.DB, logger *zap.Logger) (*Recorder, error) {
	if db != nil {
		if err := db.AutoMigrate(&StageRun{}); err != nil {
			return nil, err
		}
	}
	return &Recorder{db: db, logger: logger}, nil
}

// Record appends one stage run. Failures are logged, not returned; the
// ledger is observability, not a correctness dependency.
func (r *Recorder) Record(ctx context.Context, run StageRun) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	if r.db == nil {
		r.logger.Debug("Tracking disabled, skipping stage run",
			zap.String("stage", run.Stage),
			zap.String("status", run.Status))
		return
	}

	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		r.logger.Warn("Failed to record stage run",
			zap.String("stage", run.Stage),
			zap.String("customer_id", run.CustomerID),
			zap.Error(err))
	}
}

// Recent returns the latest stage runs, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]StageRun, error) {
	if r.db == nil {
		return []StageRun{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var runs []StageRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
