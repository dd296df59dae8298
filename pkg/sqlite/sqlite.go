// Package sqlite is a single-file gorm backend for local runs and tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

var _ db.Database = (*DB)(nil)

// DB wraps a gorm connection to a sqlite file
type DB struct {
	gorm *gorm.DB
}

// NewDB opens the sqlite database at path and migrates the schema
func NewDB(path string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	d := &DB{gorm: gdb}
	if err := d.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return d, nil
}

// Migrate creates or updates every table from the row models
func (d *DB) Migrate(ctx context.Context) error {
	err := d.gorm.WithContext(ctx).AutoMigrate(
		&departmentRow{},
		&employeeRow{},
		&shiftTemplateRow{},
		&timeOffRow{},
		&preferenceRow{},
		&historicalShiftRow{},
		&trainingRunRow{},
		&scheduleRow{},
		&assignmentRow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (d *DB) Close() {
	if sqlDB, err := d.gorm.DB(); err == nil {
		sqlDB.Close()
	}
}

// AppendTrainingRun records a training attempt
func (d *DB) AppendTrainingRun(ctx context.Context, run db.TrainingRun) error {
	row := trainingRunRow{
		ID:             run.ID,
		ModelType:      run.ModelType,
		Status:         run.Status,
		StartedAt:      run.StartedAt.UTC(),
		CompletedAt:    utcPtr(run.CompletedAt),
		SampleCount:    run.SampleCount,
		Metrics:        run.Metrics,
		ArtifactHandle: run.ArtifactHandle,
		ErrorMessage:   run.ErrorMessage,
	}
	if err := d.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// GetTrainingRuns lists training runs, newest first. An empty modelType lists all.
func (d *DB) GetTrainingRuns(ctx context.Context, modelType string) ([]db.TrainingRun, error) {
	query := d.gorm.WithContext(ctx).Order("started_at DESC").Order("id")
	if modelType != "" {
		query = query.Where("model_type = ?", modelType)
	}

	var rows []trainingRunRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}

	runs := make([]db.TrainingRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, db.TrainingRun{
			ID:             r.ID,
			ModelType:      r.ModelType,
			Status:         r.Status,
			StartedAt:      r.StartedAt.UTC(),
			CompletedAt:    utcPtr(r.CompletedAt),
			SampleCount:    r.SampleCount,
			Metrics:        r.Metrics,
			ArtifactHandle: r.ArtifactHandle,
			ErrorMessage:   r.ErrorMessage,
		})
	}
	return runs, nil
}

// GetActiveEmployees retrieves active employees, optionally restricted to departments
func (d *DB) GetActiveEmployees(ctx context.Context, departmentIDs []string) ([]model.Employee, error) {
	query := d.gorm.WithContext(ctx).Where("is_active = ?", true).Order("last_name, first_name, id")
	if len(departmentIDs) > 0 {
		query = query.Where("department_id IN ?", departmentIDs)
	}

	var rows []employeeRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}

	employees := make([]model.Employee, 0, len(rows))
	for _, r := range rows {
		employees = append(employees, model.Employee{
			ID:              r.ID,
			DepartmentID:    r.DepartmentID,
			FirstName:       r.FirstName,
			LastName:        r.LastName,
			Email:           r.Email,
			MaxHoursPerWeek: r.MaxHoursPerWeek,
			MinHoursPerWeek: r.MinHoursPerWeek,
			IsActive:        r.IsActive,
		})
	}
	return employees, nil
}

// GetActiveShiftTemplates retrieves active shift templates, optionally restricted to departments
func (d *DB) GetActiveShiftTemplates(ctx context.Context, departmentIDs []string) ([]model.ShiftTemplate, error) {
	query := d.gorm.WithContext(ctx).Where("is_active = ?", true).Order("day_of_week, start_time, name, id")
	if len(departmentIDs) > 0 {
		query = query.Where("department_id IN ?", departmentIDs)
	}

	var rows []shiftTemplateRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query shift templates: %w", err)
	}

	templates := make([]model.ShiftTemplate, 0, len(rows))
	for _, r := range rows {
		start, err := model.ParseTimeOfDay(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("shift template %s: %w", r.ID, err)
		}
		end, err := model.ParseTimeOfDay(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("shift template %s: %w", r.ID, err)
		}
		templates = append(templates, model.ShiftTemplate{
			ID:                r.ID,
			DepartmentID:      r.DepartmentID,
			Name:              r.Name,
			DayOfWeek:         r.DayOfWeek,
			StartTime:         start,
			EndTime:           end,
			DurationHours:     r.DurationHours,
			RequiredHeadcount: r.RequiredEmployees,
			IsActive:          r.IsActive,
		})
	}
	return templates, nil
}

// GetTimeOffRequests retrieves time-off requests overlapping the date range
func (d *DB) GetTimeOffRequests(ctx context.Context, start, end time.Time) ([]model.TimeOffRequest, error) {
	var rows []timeOffRow
	err := d.gorm.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", end.Format(model.DateFormat), start.Format(model.DateFormat)).
		Order("start_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query time off requests: %w", err)
	}

	requests := make([]model.TimeOffRequest, 0, len(rows))
	for _, r := range rows {
		from, err := time.Parse(model.DateFormat, r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("time off request %s: %w", r.ID, err)
		}
		to, err := time.Parse(model.DateFormat, r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("time off request %s: %w", r.ID, err)
		}
		requests = append(requests, model.TimeOffRequest{
			ID:          r.ID,
			EmployeeID:  r.EmployeeID,
			StartDate:   from,
			EndDate:     to,
			RequestType: r.RequestType,
			Status:      r.Status,
		})
	}
	return requests, nil
}

// GetActivePreferences retrieves all active employee preferences
func (d *DB) GetActivePreferences(ctx context.Context) ([]model.EmployeePreference, error) {
	var rows []preferenceRow
	err := d.gorm.WithContext(ctx).
		Where("is_active = ?", true).
		Order("employee_id").Order("priority DESC").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}

	preferences := make([]model.EmployeePreference, 0, len(rows))
	for _, r := range rows {
		p := model.EmployeePreference{
			ID:              r.ID,
			EmployeeID:      r.EmployeeID,
			Type:            model.PreferenceType(r.PreferenceType),
			ShiftTemplateID: r.ShiftTemplateID,
			DayOfWeek:       r.DayOfWeek,
			Priority:        r.Priority,
			IsActive:        r.IsActive,
		}
		var err error
		if p.StartDate, err = parseOptionalDate(r.StartDate); err != nil {
			return nil, fmt.Errorf("preference %s: %w", r.ID, err)
		}
		if p.EndDate, err = parseOptionalDate(r.EndDate); err != nil {
			return nil, fmt.Errorf("preference %s: %w", r.ID, err)
		}
		preferences = append(preferences, p)
	}
	return preferences, nil
}

// GetHistoricalShifts retrieves all imported historical shift records in import order
func (d *DB) GetHistoricalShifts(ctx context.Context) ([]model.HistoricalShiftRecord, error) {
	var rows []historicalShiftRow
	if err := d.gorm.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query historical shifts: %w", err)
	}

	records := make([]model.HistoricalShiftRecord, 0, len(rows))
	for _, r := range rows {
		rec := model.HistoricalShiftRecord{
			EmployeeIdentifier: r.EmployeeIdentifier,
			DepartmentName:     r.DepartmentName,
			StartTime:          parseOptionalTime(r.StartTime),
			EndTime:            parseOptionalTime(r.EndTime),
			DurationHours:      r.DurationHours,
			Status:             r.Status,
		}
		// Unparseable dates are left zero so the extractor skips them
		if date, err := parseOptionalDate(r.ShiftDate); err == nil && date != nil {
			rec.ShiftDate = *date
		}
		records = append(records, rec)
	}
	return records, nil
}

// InsertHistoricalShifts stores historical shift records in a single transaction
func (d *DB) InsertHistoricalShifts(ctx context.Context, records []model.HistoricalShiftRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]historicalShiftRow, 0, len(records))
	for _, r := range records {
		row := historicalShiftRow{
			EmployeeIdentifier: r.EmployeeIdentifier,
			DepartmentName:     r.DepartmentName,
			StartTime:          formatOptionalTime(r.StartTime),
			EndTime:            formatOptionalTime(r.EndTime),
			DurationHours:      r.DurationHours,
			Status:             r.Status,
		}
		if !r.ShiftDate.IsZero() {
			date := r.ShiftDate.Format(model.DateFormat)
			row.ShiftDate = &date
		}
		rows = append(rows, row)
	}

	if err := d.gorm.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert historical shifts: %w", err)
	}
	return nil
}

// SaveSchedule inserts a schedule and all of its assignments in one transaction
func (d *DB) SaveSchedule(ctx context.Context, schedule *db.Schedule, assignments []db.Assignment) error {
	if schedule == nil {
		return errors.New("schedule is required")
	}

	return d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := scheduleRow{
			ID:                        schedule.ID,
			Name:                      schedule.Name,
			StartDate:                 schedule.StartDate,
			EndDate:                   schedule.EndDate,
			Status:                    schedule.Status,
			GenerationStartedAt:       utcPtr(schedule.GenerationStartedAt),
			GenerationCompletedAt:     utcPtr(schedule.GenerationCompletedAt),
			GenerationDurationSeconds: schedule.GenerationDurationSeconds,
			OptimizerScore:            math.Round(schedule.OptimizerScore*10000) / 10000,
			ModelAssisted:             schedule.ModelAssisted,
			Notes:                     schedule.Notes,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert schedule: %w", err)
		}

		if len(assignments) == 0 {
			return nil
		}

		rows := make([]assignmentRow, 0, len(assignments))
		for _, a := range assignments {
			rows = append(rows, assignmentRow{
				ID:              a.ID,
				ScheduleID:      schedule.ID,
				EmployeeID:      a.EmployeeID,
				ShiftTemplateID: a.ShiftTemplateID,
				ShiftDate:       a.ShiftDate,
				StartTime:       a.StartTime,
				EndTime:         a.EndTime,
				Hours:           a.Hours,
				IsConfirmed:     a.IsConfirmed,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}
		return nil
	})
}

// GetSchedules retrieves all schedules, most recent first
func (d *DB) GetSchedules(ctx context.Context) ([]db.Schedule, error) {
	var rows []scheduleRow
	err := d.gorm.WithContext(ctx).
		Order("generation_started_at IS NULL").Order("generation_started_at DESC").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}

	schedules := make([]db.Schedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, db.Schedule{
			ID:                        r.ID,
			Name:                      r.Name,
			StartDate:                 r.StartDate,
			EndDate:                   r.EndDate,
			Status:                    r.Status,
			GenerationStartedAt:       utcPtr(r.GenerationStartedAt),
			GenerationCompletedAt:     utcPtr(r.GenerationCompletedAt),
			GenerationDurationSeconds: r.GenerationDurationSeconds,
			OptimizerScore:            r.OptimizerScore,
			ModelAssisted:             r.ModelAssisted,
			Notes:                     r.Notes,
		})
	}
	return schedules, nil
}

// GetAssignments retrieves the assignments of a schedule ordered by date and start time
func (d *DB) GetAssignments(ctx context.Context, scheduleID string) ([]db.Assignment, error) {
	var rows []assignmentRow
	err := d.gorm.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("shift_date, start_time, employee_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}

	assignments := make([]db.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, db.Assignment{
			ID:              r.ID,
			ScheduleID:      r.ScheduleID,
			EmployeeID:      r.EmployeeID,
			ShiftTemplateID: r.ShiftTemplateID,
			ShiftDate:       r.ShiftDate,
			StartTime:       r.StartTime,
			EndTime:         r.EndTime,
			Hours:           r.Hours,
			IsConfirmed:     r.IsConfirmed,
		})
	}
	return assignments, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateFormat, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalTime(s *string) *model.TimeOfDay {
	if s == nil {
		return nil
	}
	t, err := model.ParseTimeOfDay(*s)
	if err != nil {
		return nil
	}
	return &t
}

func formatOptionalTime(t *model.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
