package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

// ErrModelUnavailable is returned by Load when no completed training run exists for a model type
var ErrModelUnavailable = errors.New("no trained model available")

// Factor names reported in AffinityScore.Factors
const (
	FactorDay         = "day_preference"
	FactorTime        = "time_preference"
	FactorDepartment  = "department_preference"
	FactorWeekend     = "weekend_preference"
	FactorHours       = "hours_compatibility"
	FactorNoModel     = "no_model"
	FactorNewEmployee = "new_employee"
	FactorError       = "error"
)

type weightedFactor struct {
	name   string
	weight float64
}

// factorWeights sum to 1.0 and are applied in this order
var factorWeights = []weightedFactor{
	{FactorDay, 0.30},
	{FactorTime, 0.30},
	{FactorDepartment, 0.15},
	{FactorWeekend, 0.15},
	{FactorHours, 0.10},
}

const (
	// NeutralScore is used whenever no informed prediction can be made
	NeutralScore = 0.5

	// unknownEmployeeConfidence is reported for employees missing from the artifact
	unknownEmployeeConfidence = 0.1

	// fullConfidenceShifts is the number of historical shifts at which confidence reaches 1.0
	fullConfidenceShifts = 50.0
)

// RunSource lists training ledger entries
type RunSource interface {
	GetTrainingRuns(ctx context.Context, modelType string) ([]db.TrainingRun, error)
}

// ArtifactLoader reads a persisted artifact by handle
type ArtifactLoader interface {
	Load(ctx context.Context, handle string) (*model.ModelArtifact, error)
}

// ModelInfo describes the currently loaded model
type ModelInfo struct {
	ModelType      string
	ArtifactHandle string
	TrainedAt      time.Time
	SampleCount    int
	EmployeeCount  int
}

// Scorer computes employee-shift affinity from a loaded model artifact.
// It is safe for concurrent use; scoring never fails.
type Scorer struct {
	runs      RunSource
	artifacts ArtifactLoader
	logger    *zap.Logger

	mu       sync.RWMutex
	artifact *model.ModelArtifact
	handle   string
}

// NewScorer creates a scorer with no model loaded
func NewScorer(runs RunSource, artifacts ArtifactLoader, logger *zap.Logger) *Scorer {
	return &Scorer{
		runs:      runs,
		artifacts: artifacts,
		logger:    logger,
	}
}

// NewScorerFromArtifact creates a scorer with the given artifact already loaded
func NewScorerFromArtifact(artifact *model.ModelArtifact, handle string, logger *zap.Logger) *Scorer {
	return &Scorer{
		logger:   logger,
		artifact: artifact,
		handle:   handle,
	}
}

// Load selects the most recent completed training run of the model type and loads its artifact.
// Returns ErrModelUnavailable (wrapped) when there is nothing to load; the scorer then stays
// unloaded and produces neutral scores.
func (s *Scorer) Load(ctx context.Context, modelType string) error {
	if s.runs == nil || s.artifacts == nil {
		return fmt.Errorf("%w: scorer has no ledger or artifact store", ErrModelUnavailable)
	}

	runs, err := s.runs.GetTrainingRuns(ctx, modelType)
	if err != nil {
		return fmt.Errorf("%w: failed to read training runs: %v", ErrModelUnavailable, err)
	}

	run, ok := SelectMostRecentCompleted(runs, modelType)
	if !ok {
		return fmt.Errorf("%w: no completed training run for %s", ErrModelUnavailable, modelType)
	}

	artifact, err := s.artifacts.Load(ctx, run.ArtifactHandle)
	if err != nil {
		return fmt.Errorf("%w: failed to load artifact %s: %v", ErrModelUnavailable, run.ArtifactHandle, err)
	}

	s.mu.Lock()
	s.artifact = artifact
	s.handle = run.ArtifactHandle
	s.mu.Unlock()

	s.logger.Info("Loaded preference model",
		zap.String("model_type", modelType),
		zap.String("artifact", run.ArtifactHandle),
		zap.Int("employees", len(artifact.EmployeeProfiles)))

	return nil
}

// IsLoaded returns true if a model artifact is loaded
func (s *Scorer) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact != nil
}

// ModelInfo returns information about the loaded model, or nil if none is loaded
func (s *Scorer) ModelInfo() *ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.artifact == nil {
		return nil
	}
	return &ModelInfo{
		ModelType:      s.artifact.ModelType,
		ArtifactHandle: s.handle,
		TrainedAt:      s.artifact.TrainedAt,
		SampleCount:    s.artifact.SampleCount,
		EmployeeCount:  len(s.artifact.EmployeeProfiles),
	}
}

// Score predicts how well the shift on the given date suits the employee.
// Internal failures are converted to the neutral score so that scheduling is never interrupted.
func (s *Scorer) Score(employee model.Employee, shift model.CandidateShift, date time.Time) (score model.AffinityScore) {
	score = model.AffinityScore{
		EmployeeID:      employee.ID,
		ShiftTemplateID: shift.ShiftTemplateID,
		ShiftDate:       model.NormalizeDate(date),
		Factors:         map[string]float64{},
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Scoring panicked, using neutral score",
				zap.String("employee_id", employee.ID),
				zap.Any("panic", r))
			score = neutral(score, 0, FactorError)
		}
	}()

	s.mu.RLock()
	artifact := s.artifact
	s.mu.RUnlock()

	if artifact == nil {
		return neutral(score, 0, FactorNoModel)
	}

	profile := artifact.Profile(employee.ProfileKey())
	if profile == nil {
		return neutral(score, unknownEmployeeConfidence, FactorNewEmployee)
	}

	factors, err := computeFactors(profile, shift, date)
	if err != nil {
		s.logger.Warn("Scoring failed, using neutral score",
			zap.String("employee_id", employee.ID),
			zap.String("shift_template_id", shift.ShiftTemplateID),
			zap.Error(err))
		return neutral(score, 0, FactorError)
	}

	total := 0.0
	for _, f := range factorWeights {
		total += factors[f.name] * f.weight
	}

	score.PreferenceScore = clamp01(total)
	score.Confidence = math.Min(1.0, float64(profile.TotalShifts)/fullConfidenceShifts)
	score.Factors = factors
	return score
}

// ScoreAll scores every employee for the shift and returns the scores in descending
// preference order. Ties keep the input order.
func (s *Scorer) ScoreAll(employees []model.Employee, shift model.CandidateShift, date time.Time) []model.AffinityScore {
	scores := make([]model.AffinityScore, 0, len(employees))
	for _, employee := range employees {
		scores = append(scores, s.Score(employee, shift, date))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].PreferenceScore > scores[j].PreferenceScore
	})

	return scores
}

func computeFactors(profile *model.EmployeeProfile, shift model.CandidateShift, date time.Time) (map[string]float64, error) {
	if shift.DurationHours <= 0 || math.IsNaN(shift.DurationHours) || math.IsInf(shift.DurationHours, 0) {
		return nil, fmt.Errorf("invalid shift duration %v", shift.DurationHours)
	}
	if profile.ShiftsByTimeBucket == nil || profile.ShiftsByDepartment == nil {
		return nil, errors.New("profile is missing bucket statistics")
	}

	day := model.DayIndex(date)
	bucket := model.BucketForHour(shift.StartTime.Hour)
	total := float64(profile.TotalShifts)

	factors := make(map[string]float64, len(factorWeights))

	if profile.TotalShifts > 0 {
		factors[FactorDay] = float64(profile.ShiftsByWeekday[day]) / total
		factors[FactorTime] = float64(profile.ShiftsByTimeBucket[bucket]) / total
	} else {
		factors[FactorDay] = 1.0 / 7.0
		factors[FactorTime] = 1.0 / 4.0
	}

	// The strongest department affinity stands in for a match against the shift's own department
	department := 0.0
	if profile.TotalShifts > 0 {
		maxCount := 0
		for _, count := range profile.ShiftsByDepartment {
			maxCount = max(maxCount, count)
		}
		department = float64(maxCount) / total
	}
	factors[FactorDepartment] = department

	switch {
	case !model.IsWeekendIndex(day):
		factors[FactorWeekend] = 1.0
	case profile.TotalShifts > 0:
		factors[FactorWeekend] = float64(profile.WeekendShifts()) / total
	default:
		factors[FactorWeekend] = 2.0 / 7.0
	}

	avgHours := profile.AverageHours()
	if avgHours > 0 {
		factors[FactorHours] = math.Min(shift.DurationHours, avgHours) / math.Max(shift.DurationHours, avgHours)
	} else {
		factors[FactorHours] = 1.0
	}

	for name, value := range factors {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("factor %s is not finite", name)
		}
		factors[name] = clamp01(value)
	}

	return factors, nil
}

func neutral(score model.AffinityScore, confidence float64, reason string) model.AffinityScore {
	score.PreferenceScore = NeutralScore
	score.Confidence = confidence
	score.Factors = map[string]float64{reason: NeutralScore}
	return score
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
