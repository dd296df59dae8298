package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/features"
	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

// DefaultMinSamples is the minimum number of valid historical records required to train
const DefaultMinSamples = 10

// InsufficientDataError is returned when too few valid samples are available to train.
// No artifact is written when this occurs.
type InsufficientDataError struct {
	Samples  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: need at least %d valid schedule records, got %d", e.Required, e.Samples)
}

// ArtifactWriter persists model artifacts and returns a handle to the stored artifact
type ArtifactWriter interface {
	Save(ctx context.Context, modelType string, artifact *model.ModelArtifact) (string, error)
}

// Ledger is the append side of the training run ledger
type Ledger interface {
	AppendTrainingRun(ctx context.Context, run db.TrainingRun) error
}

// Metrics summarises a successful training run
type Metrics struct {
	EmployeeCount        int
	AvgShiftsPerEmployee float64
	SamplesUsed          int
}

// AsMap returns the metrics keyed the way they are stored in the ledger
func (m Metrics) AsMap() map[string]float64 {
	return map[string]float64{
		"employee_count":          float64(m.EmployeeCount),
		"avg_shifts_per_employee": m.AvgShiftsPerEmployee,
		"samples_used":            float64(m.SamplesUsed),
	}
}

// Result is the outcome of a training attempt
type Result struct {
	Success         bool
	ModelType       string
	SampleCount     int
	Metrics         Metrics
	ArtifactHandle  string
	DurationSeconds float64
	Warnings        []string
	Errors          []string

	// Err is the underlying failure, if any (e.g. *InsufficientDataError)
	Err error
}

// Trainer aggregates historical statistics into persisted preference model artifacts
type Trainer struct {
	artifacts  ArtifactWriter
	ledger     Ledger
	logger     *zap.Logger
	minSamples int
	now        func() time.Time
}

// Option customises a Trainer
type Option func(*Trainer)

// WithMinSamples overrides the minimum number of valid samples
func WithMinSamples(n int) Option {
	return func(t *Trainer) {
		t.minSamples = n
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		t.now = now
	}
}

// NewTrainer creates a trainer writing artifacts to the given store and runs to the ledger
func NewTrainer(artifacts ArtifactWriter, ledger Ledger, logger *zap.Logger, opts ...Option) *Trainer {
	t := &Trainer{
		artifacts:  artifacts,
		ledger:     ledger,
		logger:     logger,
		minSamples: DefaultMinSamples,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// modelLocks holds one mutex per model type so that at most one training run
// per model type is in progress within this process
var modelLocks sync.Map

func lockModelType(modelType string) func() {
	value, _ := modelLocks.LoadOrStore(modelType, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Train extracts features from the records, builds a model artifact and persists it.
// Every attempt appends exactly one entry to the ledger. Row-level problems are reported
// as warnings; the result is unsuccessful only for run-level failures.
func (t *Trainer) Train(ctx context.Context, records []model.HistoricalShiftRecord, modelType string) *Result {
	unlock := lockModelType(modelType)
	defer unlock()

	startedAt := t.now()
	result := &Result{
		ModelType: modelType,
		Warnings:  []string{},
		Errors:    []string{},
	}

	t.logger.Debug("Starting training run",
		zap.String("model_type", modelType),
		zap.Int("records", len(records)))

	extractor := features.NewExtractor()
	samples, warnings := extractor.Process(records)
	result.SampleCount = samples
	result.Warnings = warnings

	if len(warnings) > 0 {
		t.logger.Warn("Skipped invalid historical records",
			zap.Int("skipped", len(warnings)),
			zap.Int("valid", samples))
	}

	if samples < t.minSamples {
		return t.fail(ctx, result, startedAt, &InsufficientDataError{Samples: samples, Required: t.minSamples})
	}

	means, stds := features.ColumnStats(extractor.Vectors())
	profiles := extractor.Profiles()

	artifact := &model.ModelArtifact{
		ModelType:        modelType,
		EmployeeProfiles: profiles,
		FeatureMeans:     means,
		FeatureStds:      stds,
		SampleCount:      samples,
		TrainedAt:        startedAt,
	}

	handle, err := t.artifacts.Save(ctx, modelType, artifact)
	if err != nil {
		return t.fail(ctx, result, startedAt, fmt.Errorf("failed to save model artifact: %w", err))
	}
	result.ArtifactHandle = handle

	employeeCount := len(profiles)
	result.Metrics = Metrics{
		EmployeeCount:        employeeCount,
		AvgShiftsPerEmployee: float64(samples) / float64(max(employeeCount, 1)),
		SamplesUsed:          samples,
	}

	completedAt := t.now()
	result.DurationSeconds = completedAt.Sub(startedAt).Seconds()

	run := db.TrainingRun{
		ID:             uuid.New().String(),
		ModelType:      modelType,
		Status:         db.TrainingStatusCompleted,
		StartedAt:      startedAt,
		CompletedAt:    &completedAt,
		SampleCount:    samples,
		Metrics:        result.Metrics.AsMap(),
		ArtifactHandle: handle,
	}
	if err := t.ledger.AppendTrainingRun(ctx, run); err != nil {
		// The artifact exists but can never be selected as current without a ledger entry
		result.Err = fmt.Errorf("failed to record training run: %w", err)
		result.Errors = append(result.Errors, result.Err.Error())
		t.logger.Error("Training run could not be recorded",
			zap.String("model_type", modelType),
			zap.String("artifact", handle),
			zap.Error(err))
		return result
	}

	result.Success = true

	t.logger.Info("Training run completed",
		zap.String("model_type", modelType),
		zap.Int("samples", samples),
		zap.Int("employees", employeeCount),
		zap.String("artifact", handle))

	return result
}

// fail records a failed run in the ledger and finalises the result
func (t *Trainer) fail(ctx context.Context, result *Result, startedAt time.Time, cause error) *Result {
	completedAt := t.now()
	result.Success = false
	result.Err = cause
	result.Errors = append(result.Errors, cause.Error())
	result.DurationSeconds = completedAt.Sub(startedAt).Seconds()

	t.logger.Warn("Training run failed",
		zap.String("model_type", result.ModelType),
		zap.Int("samples", result.SampleCount),
		zap.Error(cause))

	run := db.TrainingRun{
		ID:           uuid.New().String(),
		ModelType:    result.ModelType,
		Status:       db.TrainingStatusFailed,
		StartedAt:    startedAt,
		CompletedAt:  &completedAt,
		SampleCount:  result.SampleCount,
		ErrorMessage: cause.Error(),
	}
	if err := t.ledger.AppendTrainingRun(ctx, run); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to record training run: %v", err))
		t.logger.Error("Failed training run could not be recorded", zap.Error(err))
	}

	return result
}
