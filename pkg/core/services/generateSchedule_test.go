package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/internal/config"
	"github.com/jakechorley/staffplan/pkg/artifacts"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

func threeEmployeeStore() *mockStore {
	return &mockStore{
		employees: []model.Employee{
			employee("alice", "kitchen"),
			employee("bob", "kitchen"),
			employee("carol", "kitchen"),
		},
		templates: []model.ShiftTemplate{mondayTemplate("mon-day", "kitchen", 2)},
	}
}

func TestGenerateSchedule_NeutralOrdering(t *testing.T) {
	store := threeEmployeeStore()

	result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
		Name:      "Week 1",
		StartDate: monday,
		EndDate:   monday,
	}, zap.NewNop())
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, model.ScheduleGenerated, result.Status)
	assert.False(t, result.ModelAssisted)
	assert.Equal(t, 2, result.AssignmentsCreated)
	assert.Equal(t, 0, result.UnassignedShiftCount)
	assert.Equal(t, 1.0, result.OptimizerScore)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Assignments, 2)
	assert.Equal(t, "alice", result.Assignments[0].EmployeeID)
	assert.Equal(t, "bob", result.Assignments[1].EmployeeID)
	assert.Equal(t, "2024-01-01", result.Assignments[0].ShiftDate)
	assert.Equal(t, "09:00", result.Assignments[0].StartTime)
	assert.Equal(t, "17:00", result.Assignments[0].EndTime)
	assert.Equal(t, 8.0, result.Assignments[0].Hours)

	require.Len(t, store.savedSchedules, 1)
	saved := store.savedSchedules[0]
	assert.Equal(t, result.ScheduleID, saved.ID)
	assert.Equal(t, "generated", saved.Status)
	assert.Equal(t, "2024-01-01", saved.StartDate)
	assert.NotNil(t, saved.GenerationStartedAt)
	assert.NotNil(t, saved.GenerationCompletedAt)
	assert.Len(t, store.savedAssignments[saved.ID], 2)
	for _, a := range store.savedAssignments[saved.ID] {
		assert.Equal(t, saved.ID, a.ScheduleID)
		assert.NotEmpty(t, a.ID)
	}
}

func TestGenerateSchedule_ModelUnavailableFallsBack(t *testing.T) {
	store := threeEmployeeStore()
	store.runsErr = errors.New("ledger offline")

	result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
		Name:      "Week 1",
		StartDate: monday,
		EndDate:   monday,
		UseModel:  true,
	}, zap.NewNop())
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.False(t, result.ModelAssisted)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "Preference model unavailable")
	require.Len(t, result.Assignments, 2)
	assert.Equal(t, "alice", result.Assignments[0].EmployeeID)
}

func TestGenerateSchedule_ModelAssistedRanking(t *testing.T) {
	store := threeEmployeeStore()
	store.templates = []model.ShiftTemplate{mondayTemplate("mon-day", "kitchen", 1)}
	fileStore, err := artifacts.NewFileStore(t.TempDir())
	require.NoError(t, err)

	trained := TrainPreferenceModel(context.Background(), mondayHistory(12, "carol@example.com"), "", fileStore, store, zap.NewNop())
	require.True(t, trained.Success, trained.Errors)

	result, err := GenerateSchedule(context.Background(), store, fileStore, GenerateScheduleRequest{
		Name:      "Week 1",
		StartDate: monday,
		EndDate:   monday,
		UseModel:  true,
	}, zap.NewNop())
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.True(t, result.ModelAssisted)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "carol", result.Assignments[0].EmployeeID)
	assert.True(t, store.savedSchedules[0].ModelAssisted)
}

func TestGenerateSchedule_RosterFailureRecordsFailedSchedule(t *testing.T) {
	store := threeEmployeeStore()
	store.rosterErr = errors.New("connection reset")

	result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
		Name:      "Week 1",
		StartDate: monday,
		EndDate:   monday,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, model.ScheduleFailed, result.Status)
	assert.Empty(t, result.Assignments)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "connection reset")

	var failure *GenerationFailure
	require.ErrorAs(t, result.Err, &failure)
	assert.Equal(t, "roster", failure.Stage)
	assert.Equal(t, result.ScheduleID, failure.ScheduleID)

	require.Len(t, store.savedSchedules, 1)
	assert.Equal(t, "failed", store.savedSchedules[0].Status)
	assert.Empty(t, store.savedAssignments[result.ScheduleID])
}

func TestGenerateSchedule_SaveFailureKeepsNoAssignments(t *testing.T) {
	store := threeEmployeeStore()
	store.saveErrs = []error{errors.New("unique violation"), nil}

	result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
		Name:      "Week 1",
		StartDate: monday,
		EndDate:   monday,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.AssignmentsCreated)
	assert.Empty(t, result.Assignments)

	var failure *GenerationFailure
	require.ErrorAs(t, result.Err, &failure)
	assert.Equal(t, "persist", failure.Stage)

	require.Len(t, store.savedSchedules, 1)
	assert.Equal(t, "failed", store.savedSchedules[0].Status)
	assert.Empty(t, store.savedAssignments[result.ScheduleID])
}

func TestGenerateSchedule_Understaffed(t *testing.T) {
	store := &mockStore{
		employees: []model.Employee{employee("alice", "kitchen")},
		templates: []model.ShiftTemplate{mondayTemplate("mon-day", "kitchen", 3)},
	}

	result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
		Name:      "Week 1",
		StartDate: monday,
		EndDate:   monday,
	}, zap.NewNop())
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.AssignmentsCreated)
	assert.Equal(t, 2, result.UnassignedShiftCount)
	assert.Equal(t, 3, result.TotalRequiredSlots)
	assert.InDelta(t, 1.0/3.0, result.OptimizerScore, 1e-9)
	assert.NotEmpty(t, result.Warnings)
}

func TestGenerateSchedule_Overrides(t *testing.T) {
	headcount := 3
	nobody := 0

	tests := []struct {
		name     string
		override config.ScheduleOverride
		expected int
	}{
		{
			name:     "closed on matching Monday",
			override: config.ScheduleOverride{RRule: "FREQ=WEEKLY;BYDAY=MO", Closed: true},
			expected: 0,
		},
		{
			name:     "headcount raised on matching Monday",
			override: config.ScheduleOverride{RRule: "FREQ=WEEKLY;BYDAY=MO", ShiftTemplateID: "mon-day", RequiredHeadcount: &headcount},
			expected: 3,
		},
		{
			name:     "headcount of zero needs nobody",
			override: config.ScheduleOverride{RRule: "FREQ=WEEKLY;BYDAY=MO", ShiftTemplateID: "mon-day", RequiredHeadcount: &nobody},
			expected: 0,
		},
		{
			name:     "override for another template is ignored",
			override: config.ScheduleOverride{RRule: "FREQ=WEEKLY;BYDAY=MO", ShiftTemplateID: "other", Closed: true},
			expected: 2,
		},
		{
			name:     "rule not matching the range is ignored",
			override: config.ScheduleOverride{RRule: "FREQ=WEEKLY;BYDAY=TU", Closed: true},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := threeEmployeeStore()

			result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
				Name:      "Week 1",
				StartDate: monday,
				EndDate:   monday,
				Overrides: []config.ScheduleOverride{tt.override},
			}, zap.NewNop())
			require.NoError(t, err)

			require.True(t, result.Success)
			assert.Equal(t, tt.expected, result.AssignmentsCreated)
			assert.Equal(t, 0, result.UnassignedShiftCount)
		})
	}
}

func TestGenerateSchedule_DepartmentFilter(t *testing.T) {
	store := &mockStore{
		employees: []model.Employee{
			employee("alice", "bar"),
			employee("bob", "kitchen"),
		},
		templates: []model.ShiftTemplate{
			mondayTemplate("bar-day", "bar", 1),
			mondayTemplate("kitchen-day", "kitchen", 1),
		},
	}

	result, err := GenerateSchedule(context.Background(), store, nil, GenerateScheduleRequest{
		Name:          "Kitchen only",
		StartDate:     monday,
		EndDate:       monday,
		DepartmentIDs: []string{"kitchen"},
	}, zap.NewNop())
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "bob", result.Assignments[0].EmployeeID)
	assert.Equal(t, "kitchen-day", result.Assignments[0].ShiftTemplateID)
}

func TestGenerateSchedule_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  GenerateScheduleRequest
	}{
		{"missing name", GenerateScheduleRequest{StartDate: monday, EndDate: monday}},
		{"missing dates", GenerateScheduleRequest{Name: "x"}},
		{"end before start", GenerateScheduleRequest{Name: "x", StartDate: monday, EndDate: monday.AddDate(0, 0, -1)}},
		{"bad rrule", GenerateScheduleRequest{Name: "x", StartDate: monday, EndDate: monday,
			Overrides: []config.ScheduleOverride{{RRule: "FREQ=SOMETIMES", Closed: true}}}},
		{"override without effect", GenerateScheduleRequest{Name: "x", StartDate: monday, EndDate: monday,
			Overrides: []config.ScheduleOverride{{RRule: "FREQ=WEEKLY;BYDAY=MO"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := threeEmployeeStore()

			result, err := GenerateSchedule(context.Background(), store, nil, tt.req, zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, result)
			assert.Empty(t, store.savedSchedules)
		})
	}
}

func TestConvertScheduleOverrides_MatchesDatesInRange(t *testing.T) {
	overrides, err := convertScheduleOverrides([]config.ScheduleOverride{
		{RRule: "FREQ=WEEKLY;INTERVAL=1;BYDAY=SA", Closed: true},
	}, monday, monday.AddDate(0, 0, 13), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, overrides, 1)

	assert.True(t, overrides[0].AppliesTo(monday.AddDate(0, 0, 5)))
	assert.True(t, overrides[0].AppliesTo(monday.AddDate(0, 0, 12)))
	assert.False(t, overrides[0].AppliesTo(monday.AddDate(0, 0, 6)))
	assert.False(t, overrides[0].AppliesTo(monday))
}
