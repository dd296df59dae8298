package db

import "time"

// Training run statuses recorded in the ledger
const (
	TrainingStatusCompleted = "completed"
	TrainingStatusFailed    = "failed"
)

// TrainingRun represents a training ledger record.
// Records are append-only: one is written for every training attempt.
type TrainingRun struct {
	ID             string
	ModelType      string
	Status         string
	StartedAt      time.Time
	CompletedAt    *time.Time
	SampleCount    int
	Metrics        map[string]float64
	ArtifactHandle string
	ErrorMessage   string
}

// Schedule represents a schedule record
type Schedule struct {
	ID                        string
	Name                      string
	StartDate                 string
	EndDate                   string
	Status                    string
	GenerationStartedAt       *time.Time
	GenerationCompletedAt     *time.Time
	GenerationDurationSeconds float64
	OptimizerScore            float64
	ModelAssisted             bool
	Notes                     string
}

// Assignment represents a single employee-shift assignment belonging to a schedule
type Assignment struct {
	ID              string
	ScheduleID      string
	EmployeeID      string
	ShiftTemplateID string
	ShiftDate       string
	StartTime       string
	EndTime         string
	Hours           float64
	IsConfirmed     bool
}
