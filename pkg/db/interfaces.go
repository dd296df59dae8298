package db

import (
	"context"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// TrainingLedger defines the append-only training run ledger operations
type TrainingLedger interface {
	AppendTrainingRun(ctx context.Context, run TrainingRun) error
	GetTrainingRuns(ctx context.Context, modelType string) ([]TrainingRun, error)
}

// RosterStore provides the live roster used during schedule generation.
// An empty departmentIDs slice means no department filter.
type RosterStore interface {
	GetActiveEmployees(ctx context.Context, departmentIDs []string) ([]model.Employee, error)
	GetActiveShiftTemplates(ctx context.Context, departmentIDs []string) ([]model.ShiftTemplate, error)
	GetTimeOffRequests(ctx context.Context, start, end time.Time) ([]model.TimeOffRequest, error)
	GetActivePreferences(ctx context.Context) ([]model.EmployeePreference, error)
}

// HistoryStore provides normalised historical shift records
type HistoryStore interface {
	GetHistoricalShifts(ctx context.Context) ([]model.HistoricalShiftRecord, error)
	InsertHistoricalShifts(ctx context.Context, records []model.HistoricalShiftRecord) error
}

// ScheduleStore persists generated schedules.
// SaveSchedule writes the schedule and its assignments in a single transaction.
type ScheduleStore interface {
	SaveSchedule(ctx context.Context, schedule *Schedule, assignments []Assignment) error
	GetSchedules(ctx context.Context) ([]Schedule, error)
	GetAssignments(ctx context.Context, scheduleID string) ([]Assignment, error)
}

// Database defines the interface for all database operations.
// Both the Postgres-backed postgres.DB and the SQLite-backed sqlite.DB implement this interface.
type Database interface {
	TrainingLedger
	RosterStore
	HistoryStore
	ScheduleStore

	// Migrate brings the schema up to date; it is safe to run repeatedly
	Migrate(ctx context.Context) error
	Close()
}
