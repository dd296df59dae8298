package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// HistoryInserter stores imported historical records
type HistoryInserter interface {
	InsertHistoricalShifts(ctx context.Context, records []model.HistoricalShiftRecord) error
}

// ImportHistoryResult summarises an import
type ImportHistoryResult struct {
	Imported int

	// Unallocated counts rows without an employee; they are stored but skipped by training
	Unallocated int
}

// ImportHistory copies historical records into the store as read.
// Validation happens when the records are used for training.
func ImportHistory(ctx context.Context, records []model.HistoricalShiftRecord, store HistoryInserter, logger *zap.Logger) (*ImportHistoryResult, error) {
	result := &ImportHistoryResult{}
	for _, r := range records {
		if model.IsUnallocated(r.EmployeeIdentifier) {
			result.Unallocated++
		}
	}

	if len(records) == 0 {
		logger.Info("No historical records to import")
		return result, nil
	}

	if err := store.InsertHistoricalShifts(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to import historical shifts: %w", err)
	}
	result.Imported = len(records)

	logger.Info("Imported historical shifts",
		zap.Int("imported", result.Imported),
		zap.Int("unallocated", result.Unallocated))

	return result, nil
}
