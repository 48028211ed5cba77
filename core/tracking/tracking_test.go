package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRecorder(t *testing.T) *Recorder {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	rec, err := NewRecorder(db, zap.NewNop())
	require.NoError(t, err)
	return rec
}

func TestRecorder_RecordAndRecent(t *testing.T) {
	rec := setupRecorder(t)
	ctx := context.Background()

	rec.Record(ctx, StageRun{
		RunID:      "run-1",
		Stage:      "report",
		CustomerID: "123",
		Status:     StatusSucceeded,
		RowCount:   42,
	})
	rec.Record(ctx, StageRun{
		RunID:      "run-1",
		Stage:      "exclude",
		CustomerID: "123",
		Status:     StatusSkipped,
		Message:    "nothing to update",
	})

	runs, err := rec.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	for _, run := range runs {
		assert.NotEmpty(t, run.ID)
		assert.False(t, run.CreatedAt.IsZero())
		assert.Equal(t, "123", run.CustomerID)
	}
}

func TestRecorder_NilDBIsNoop(t *testing.T) {
	rec, err := NewRecorder(nil, zap.NewNop())
	require.NoError(t, err)

	// Must not panic.
	rec.Record(context.Background(), StageRun{Stage: "accounts", Status: StatusStarted})

	runs, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
