package model

import "time"

// DefaultModelType is the model type trained and loaded when none is specified
const DefaultModelType = "preference_predictor"

// EmployeeProfile holds the running statistics built from an employee's historical shifts.
// Weekday, time bucket and department counts each sum to TotalShifts.
type EmployeeProfile struct {
	TotalShifts        int                `json:"total_shifts"`
	TotalHours         float64            `json:"total_hours"`
	ShiftsByWeekday    [7]int             `json:"shifts_by_weekday"`
	ShiftsByTimeBucket map[TimeBucket]int `json:"shifts_by_time_bucket"`
	ShiftsByDepartment map[string]int     `json:"shifts_by_department"`
}

// NewEmployeeProfile creates an empty profile with initialised maps
func NewEmployeeProfile() *EmployeeProfile {
	return &EmployeeProfile{
		ShiftsByTimeBucket: make(map[TimeBucket]int),
		ShiftsByDepartment: make(map[string]int),
	}
}

// AverageHours returns the mean duration of the employee's historical shifts
func (p *EmployeeProfile) AverageHours() float64 {
	if p.TotalShifts == 0 {
		return 0
	}
	return p.TotalHours / float64(p.TotalShifts)
}

// WeekendShifts returns the number of Saturday and Sunday shifts
func (p *EmployeeProfile) WeekendShifts() int {
	return p.ShiftsByWeekday[5] + p.ShiftsByWeekday[6]
}

// ModelArtifact is the persisted output of a training run.
// Artifacts are immutable once saved.
type ModelArtifact struct {
	ModelType        string                      `json:"model_type"`
	EmployeeProfiles map[string]*EmployeeProfile `json:"employee_profiles"`
	FeatureMeans     []float64                   `json:"feature_means"`
	FeatureStds      []float64                   `json:"feature_stds"`
	SampleCount      int                         `json:"sample_count"`
	TrainedAt        time.Time                   `json:"trained_at"`
}

// Profile returns the profile for a normalised employee key, or nil
func (a *ModelArtifact) Profile(key string) *EmployeeProfile {
	if a == nil || a.EmployeeProfiles == nil {
		return nil
	}
	return a.EmployeeProfiles[key]
}
