package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/internal/config"
	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/allocator/criteria"
	"github.com/jakechorley/staffplan/pkg/core/inference"
	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

var validate = validator.New()

// GenerateScheduleStore defines the database operations needed to generate a schedule
type GenerateScheduleStore interface {
	db.RosterStore
	inference.RunSource
	SaveSchedule(ctx context.Context, schedule *db.Schedule, assignments []db.Assignment) error
}

// GenerateScheduleRequest describes the schedule to generate
type GenerateScheduleRequest struct {
	Name      string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required"`

	// DepartmentIDs restricts employees and templates; empty means all departments
	DepartmentIDs []string

	// UseModel ranks candidates with the most recent completed preference model
	UseModel  bool
	ModelType string

	Notes     string
	Overrides []config.ScheduleOverride `validate:"dive"`
}

// GenerateScheduleResult is the outcome of a generation run
type GenerateScheduleResult struct {
	Success              bool
	ScheduleID           string
	Status               model.ScheduleStatus
	AssignmentsCreated   int
	UnassignedShiftCount int
	TotalRequiredSlots   int
	OptimizerScore       float64
	DurationSeconds      float64
	ModelAssisted        bool
	Warnings             []string
	Errors               []string

	// Assignments holds what was persisted; empty when the run failed
	Assignments []db.Assignment

	// Err is set to a *GenerationFailure when the run failed
	Err error
}

// GenerationFailure is an unrecoverable error that aborted a generation run.
// No assignments from the run are kept.
type GenerationFailure struct {
	ScheduleID string
	Stage      string
	Err        error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("schedule generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Err
}

// GenerateSchedule builds and persists a schedule for the requested date range.
// An error is returned only for an invalid request; generation failures are reported
// on the result, and the schedule is recorded as failed with no assignments.
func GenerateSchedule(
	ctx context.Context,
	store GenerateScheduleStore,
	artifacts inference.ArtifactLoader,
	req GenerateScheduleRequest,
	logger *zap.Logger,
) (*GenerateScheduleResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid schedule request: %w", err)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("invalid schedule request: start and end dates are required")
	}
	start := model.NormalizeDate(req.StartDate)
	end := model.NormalizeDate(req.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid schedule request: end date %s is before start date %s",
			end.Format(model.DateFormat), start.Format(model.DateFormat))
	}
	modelType := req.ModelType
	if modelType == "" {
		modelType = DefaultModelType
	}

	overrides, err := convertScheduleOverrides(req.Overrides, start, end, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule request: %w", err)
	}

	startedAt := time.Now()
	schedule := &db.Schedule{
		ID:                  uuid.New().String(),
		Name:                req.Name,
		StartDate:           start.Format(model.DateFormat),
		EndDate:             end.Format(model.DateFormat),
		Status:              string(model.ScheduleDraft),
		GenerationStartedAt: &startedAt,
		Notes:               req.Notes,
	}
	result := &GenerateScheduleResult{
		ScheduleID:  schedule.ID,
		Status:      model.ScheduleDraft,
		Warnings:    []string{},
		Errors:      []string{},
		Assignments: []db.Assignment{},
	}

	logger.Info("Generating schedule",
		zap.String("schedule_id", schedule.ID),
		zap.String("name", req.Name),
		zap.String("start", schedule.StartDate),
		zap.String("end", schedule.EndDate),
		zap.Strings("departments", req.DepartmentIDs),
		zap.Bool("use_model", req.UseModel))

	if result.Status, err = result.Status.Transition(model.ScheduleGenerating); err != nil {
		return failGeneration(ctx, store, schedule, result, "start", err, logger), nil
	}

	var scorer allocator.Scorer
	if req.UseModel {
		modelScorer := inference.NewScorer(store, artifacts, logger)
		if err := modelScorer.Load(ctx, modelType); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Preference model unavailable, using neutral ordering: %v", err))
			logger.Warn("Preference model unavailable", zap.String("model_type", modelType), zap.Error(err))
		} else {
			scorer = modelScorer
			result.ModelAssisted = true
		}
	}

	logger.Debug("Fetching roster")
	employees, err := store.GetActiveEmployees(ctx, req.DepartmentIDs)
	if err != nil {
		return failGeneration(ctx, store, schedule, result, "roster", err, logger), nil
	}
	templates, err := store.GetActiveShiftTemplates(ctx, req.DepartmentIDs)
	if err != nil {
		return failGeneration(ctx, store, schedule, result, "roster", err, logger), nil
	}
	timeOff, err := store.GetTimeOffRequests(ctx, start, end)
	if err != nil {
		return failGeneration(ctx, store, schedule, result, "roster", err, logger), nil
	}
	preferences, err := store.GetActivePreferences(ctx)
	if err != nil {
		return failGeneration(ctx, store, schedule, result, "roster", err, logger), nil
	}
	logger.Debug("Roster fetched",
		zap.Int("employees", len(employees)),
		zap.Int("templates", len(templates)),
		zap.Int("time_off", len(timeOff)),
		zap.Int("preferences", len(preferences)))

	outcome, err := allocator.Allocate(allocator.AllocationConfig{
		StartDate:      start,
		EndDate:        end,
		Employees:      employees,
		ShiftTemplates: templates,
		TimeOff:        timeOff,
		Preferences:    preferences,
		DepartmentIDs:  req.DepartmentIDs,
		Scorer:         scorer,
		Constraints:    criteria.Default(preferences),
		Overrides:      overrides,
	})
	if err != nil {
		return failGeneration(ctx, store, schedule, result, "allocation", err, logger), nil
	}

	for _, rejection := range outcome.Rejections {
		logger.Debug("Candidate rejected",
			zap.String("constraint", rejection.Constraint),
			zap.String("employee_id", rejection.EmployeeID),
			zap.String("shift_template_id", rejection.ShiftTemplateID),
			zap.Time("shift_date", rejection.ShiftDate),
			zap.String("reason", rejection.Reason))
	}

	assignments := convertToDBAssignments(schedule.ID, outcome.Assignments)

	if result.Status, err = result.Status.Transition(model.ScheduleGenerated); err != nil {
		return failGeneration(ctx, store, schedule, result, "finalise", err, logger), nil
	}
	completedAt := time.Now()
	schedule.Status = string(result.Status)
	schedule.GenerationCompletedAt = &completedAt
	schedule.GenerationDurationSeconds = completedAt.Sub(startedAt).Seconds()
	schedule.OptimizerScore = outcome.OptimizerScore
	schedule.ModelAssisted = result.ModelAssisted

	logger.Debug("Saving schedule", zap.Int("assignments", len(assignments)))
	if err := store.SaveSchedule(ctx, schedule, assignments); err != nil {
		result.Status = model.ScheduleGenerating
		return failGeneration(ctx, store, schedule, result, "persist", err, logger), nil
	}

	result.Success = true
	result.Assignments = assignments
	result.AssignmentsCreated = len(assignments)
	result.UnassignedShiftCount = outcome.UnassignedShiftCount
	result.TotalRequiredSlots = outcome.TotalRequiredSlots
	result.OptimizerScore = outcome.OptimizerScore
	result.DurationSeconds = schedule.GenerationDurationSeconds
	result.Warnings = append(result.Warnings, outcome.Warnings...)

	for _, warning := range outcome.Warnings {
		logger.Warn("Understaffed", zap.String("detail", warning))
	}
	logger.Info("Schedule generated",
		zap.String("schedule_id", schedule.ID),
		zap.Int("assignments", result.AssignmentsCreated),
		zap.Int("unassigned", result.UnassignedShiftCount),
		zap.Float64("optimizer_score", result.OptimizerScore),
		zap.Bool("model_assisted", result.ModelAssisted))

	return result, nil
}

// failGeneration marks the run failed and records the schedule without any assignments
func failGeneration(
	ctx context.Context,
	store GenerateScheduleStore,
	schedule *db.Schedule,
	result *GenerateScheduleResult,
	stage string,
	cause error,
	logger *zap.Logger,
) *GenerateScheduleResult {
	failure := &GenerationFailure{ScheduleID: schedule.ID, Stage: stage, Err: cause}
	logger.Error("Schedule generation failed", zap.String("schedule_id", schedule.ID), zap.Error(failure))

	if next, err := result.Status.Transition(model.ScheduleFailed); err == nil {
		result.Status = next
	} else {
		result.Status = model.ScheduleFailed
	}

	completedAt := time.Now()
	schedule.Status = string(result.Status)
	schedule.GenerationCompletedAt = &completedAt
	if schedule.GenerationStartedAt != nil {
		schedule.GenerationDurationSeconds = completedAt.Sub(*schedule.GenerationStartedAt).Seconds()
	}
	schedule.OptimizerScore = 0
	schedule.ModelAssisted = result.ModelAssisted

	result.Success = false
	result.Err = failure
	result.Errors = append(result.Errors, failure.Error())
	result.Assignments = []db.Assignment{}
	result.AssignmentsCreated = 0
	result.DurationSeconds = schedule.GenerationDurationSeconds

	if err := store.SaveSchedule(ctx, schedule, nil); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to record failed schedule: %v", err))
		logger.Error("Failed schedule could not be recorded", zap.String("schedule_id", schedule.ID), zap.Error(err))
	}

	return result
}

// convertScheduleOverrides turns configured overrides into allocator overrides.
// Each rrule is expanded once over the schedule range (padded by a week either side).
func convertScheduleOverrides(configOverrides []config.ScheduleOverride, start, end time.Time, logger *zap.Logger) ([]allocator.TemplateOverride, error) {
	result := make([]allocator.TemplateOverride, 0, len(configOverrides))

	searchStart := start.AddDate(0, 0, -7)
	searchEnd := end.AddDate(0, 0, 7)

	for i, override := range configOverrides {
		if !override.Closed && override.RequiredHeadcount == nil {
			return nil, fmt.Errorf("override %d must set closed or requiredHeadcount", i)
		}

		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}
		rule.DTStart(searchStart)

		matched := make(map[string]bool)
		for _, occurrence := range rule.Between(searchStart, searchEnd, true) {
			matched[occurrence.Format(model.DateFormat)] = true
		}

		result = append(result, allocator.TemplateOverride{
			AppliesTo: func(date time.Time) bool {
				return matched[date.Format(model.DateFormat)]
			},
			ShiftTemplateID:   override.ShiftTemplateID,
			RequiredHeadcount: override.RequiredHeadcount,
			Closed:            override.Closed,
		})

		logger.Debug("Converted override",
			zap.Int("index", i),
			zap.String("rrule", override.RRule),
			zap.String("shift_template_id", override.ShiftTemplateID),
			zap.Bool("closed", override.Closed),
			zap.Int("matched_dates", len(matched)))
	}

	return result, nil
}

// convertToDBAssignments converts allocator assignments to persisted rows
func convertToDBAssignments(scheduleID string, assignments []allocator.Assignment) []db.Assignment {
	rows := make([]db.Assignment, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, db.Assignment{
			ID:              uuid.New().String(),
			ScheduleID:      scheduleID,
			EmployeeID:      a.EmployeeID,
			ShiftTemplateID: a.ShiftTemplateID,
			ShiftDate:       a.ShiftDate.Format(model.DateFormat),
			StartTime:       a.StartTime.String(),
			EndTime:         a.EndTime.String(),
			Hours:           a.Hours,
			IsConfirmed:     false,
		})
	}
	return rows
}
