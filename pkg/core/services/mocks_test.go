package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/db"
)

// mockStore is an in-memory store covering every interface the services depend on
type mockStore struct {
	mu sync.Mutex

	employees   []model.Employee
	templates   []model.ShiftTemplate
	timeOff     []model.TimeOffRequest
	preferences []model.EmployeePreference
	history     []model.HistoricalShiftRecord
	runs        []db.TrainingRun

	savedSchedules   []db.Schedule
	savedAssignments map[string][]db.Assignment

	rosterErr error
	runsErr   error
	insertErr error

	// saveErrs are returned by successive SaveSchedule calls; nil entries succeed
	saveErrs []error
}

func (m *mockStore) GetActiveEmployees(ctx context.Context, departmentIDs []string) ([]model.Employee, error) {
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	result := []model.Employee{}
	for _, e := range m.employees {
		if e.IsActive && (len(departmentIDs) == 0 || contains(departmentIDs, e.DepartmentID)) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockStore) GetActiveShiftTemplates(ctx context.Context, departmentIDs []string) ([]model.ShiftTemplate, error) {
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	result := []model.ShiftTemplate{}
	for _, t := range m.templates {
		if t.IsActive && (len(departmentIDs) == 0 || contains(departmentIDs, t.DepartmentID)) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockStore) GetTimeOffRequests(ctx context.Context, start, end time.Time) ([]model.TimeOffRequest, error) {
	return m.timeOff, nil
}

func (m *mockStore) GetActivePreferences(ctx context.Context) ([]model.EmployeePreference, error) {
	return m.preferences, nil
}

func (m *mockStore) GetTrainingRuns(ctx context.Context, modelType string) ([]db.TrainingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runsErr != nil {
		return nil, m.runsErr
	}
	result := []db.TrainingRun{}
	for i := len(m.runs) - 1; i >= 0; i-- {
		if modelType == "" || m.runs[i].ModelType == modelType {
			result = append(result, m.runs[i])
		}
	}
	return result, nil
}

func (m *mockStore) AppendTrainingRun(ctx context.Context, run db.TrainingRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockStore) InsertHistoricalShifts(ctx context.Context, records []model.HistoricalShiftRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.history = append(m.history, records...)
	return nil
}

func (m *mockStore) SaveSchedule(ctx context.Context, schedule *db.Schedule, assignments []db.Assignment) error {
	if schedule == nil {
		return errors.New("schedule is nil")
	}
	if len(m.saveErrs) > 0 {
		err := m.saveErrs[0]
		m.saveErrs = m.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	if m.savedAssignments == nil {
		m.savedAssignments = make(map[string][]db.Assignment)
	}
	m.savedSchedules = append(m.savedSchedules, *schedule)
	m.savedAssignments[schedule.ID] = append(m.savedAssignments[schedule.ID], assignments...)
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

// monday is the first Monday of 2024
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func employee(id, department string) model.Employee {
	return model.Employee{
		ID:              id,
		DepartmentID:    department,
		FirstName:       id,
		LastName:        "Test",
		Email:           id + "@example.com",
		MaxHoursPerWeek: 40,
		IsActive:        true,
	}
}

func mondayTemplate(id, department string, required int) model.ShiftTemplate {
	return model.ShiftTemplate{
		ID:                id,
		DepartmentID:      department,
		Name:              "Monday Day",
		DayOfWeek:         0,
		StartTime:         model.TimeOfDay{Hour: 9},
		EndTime:           model.TimeOfDay{Hour: 17},
		DurationHours:     8,
		RequiredHeadcount: required,
		IsActive:          true,
	}
}

// mondayHistory returns n weekly Monday 09:00-17:00 shifts for one identifier
func mondayHistory(n int, identifier string) []model.HistoricalShiftRecord {
	records := make([]model.HistoricalShiftRecord, n)
	for i := range records {
		records[i] = model.HistoricalShiftRecord{
			EmployeeIdentifier: identifier,
			DepartmentName:     "Kitchen",
			ShiftDate:          monday.AddDate(0, 0, -7*(i+1)),
			StartTime:          &model.TimeOfDay{Hour: 9},
			EndTime:            &model.TimeOfDay{Hour: 17},
			DurationHours:      8,
			Status:             "published",
		}
	}
	return records
}
