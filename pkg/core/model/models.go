package model

import (
	"strings"
	"time"
)

// Employee represents a member of staff that can be rostered
type Employee struct {
	ID              string
	DepartmentID    string
	FirstName       string
	LastName        string
	Email           string
	MaxHoursPerWeek float64
	MinHoursPerWeek float64
	IsActive        bool
}

// FullName returns the employee's first and last name
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ProfileKey returns the identifier used to look the employee up in a trained model.
// It matches the normalisation applied to historical records during training.
func (e Employee) ProfileKey() string {
	if e.Email != "" {
		return NormalizeIdentifier(e.Email)
	}
	return NormalizeIdentifier(e.FirstName + "_" + e.LastName)
}

// ShiftTemplate is a recurring weekly shift definition
type ShiftTemplate struct {
	ID                string
	DepartmentID      string
	Name              string
	DayOfWeek         int // 0=Monday, 6=Sunday
	StartTime         TimeOfDay
	EndTime           TimeOfDay
	DurationHours     float64
	RequiredHeadcount int
	IsActive          bool
}

// CandidateShift returns the concrete shift instance for this template
func (t ShiftTemplate) CandidateShift() CandidateShift {
	return CandidateShift{
		ShiftTemplateID:   t.ID,
		DepartmentID:      t.DepartmentID,
		DayOfWeek:         t.DayOfWeek,
		StartTime:         t.StartTime,
		EndTime:           t.EndTime,
		DurationHours:     t.DurationHours,
		RequiredHeadcount: t.RequiredHeadcount,
	}
}

// CandidateShift is a concrete shift awaiting staffing
type CandidateShift struct {
	ShiftTemplateID   string
	DepartmentID      string
	DayOfWeek         int
	StartTime         TimeOfDay
	EndTime           TimeOfDay
	DurationHours     float64
	RequiredHeadcount int
}

// TimeOffStatus values
const (
	TimeOffPending  = "pending"
	TimeOffApproved = "approved"
	TimeOffDenied   = "denied"
)

// TimeOffRequest is a window during which an employee is not available
type TimeOffRequest struct {
	ID          string
	EmployeeID  string
	StartDate   time.Time
	EndDate     time.Time
	RequestType string
	Status      string
}

// Covers returns true if the request is approved and the date falls within the window (inclusive)
func (r TimeOffRequest) Covers(date time.Time) bool {
	if r.Status != TimeOffApproved {
		return false
	}
	d := NormalizeDate(date)
	return !d.Before(NormalizeDate(r.StartDate)) && !d.After(NormalizeDate(r.EndDate))
}

// PreferenceType enumerates the explicit preference kinds an employee can register
type PreferenceType string

const (
	PreferredShift PreferenceType = "preferred_shift"
	AvoidShift     PreferenceType = "avoid_shift"
	PreferredDays  PreferenceType = "preferred_days"
	AvoidDays      PreferenceType = "avoid_days"
)

// IsValid returns true if the preference type is one of the known kinds
func (p PreferenceType) IsValid() bool {
	switch p {
	case PreferredShift, AvoidShift, PreferredDays, AvoidDays:
		return true
	}
	return false
}

// EmployeePreference is an explicit, employee-declared preference
type EmployeePreference struct {
	ID              string
	EmployeeID      string
	Type            PreferenceType
	ShiftTemplateID string // set for preferred_shift / avoid_shift
	DayOfWeek       *int   // set for preferred_days / avoid_days
	Priority        int
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        bool
}

// AppliesOn returns true if the preference is active and its optional validity window covers the date
func (p EmployeePreference) AppliesOn(date time.Time) bool {
	if !p.IsActive {
		return false
	}
	d := NormalizeDate(date)
	if p.StartDate != nil && d.Before(NormalizeDate(*p.StartDate)) {
		return false
	}
	if p.EndDate != nil && d.After(NormalizeDate(*p.EndDate)) {
		return false
	}
	return true
}

// HistoricalShiftRecord is a single normalised shift from a historical export
type HistoricalShiftRecord struct {
	EmployeeIdentifier string
	DepartmentName     string
	ShiftDate          time.Time
	StartTime          *TimeOfDay
	EndTime            *TimeOfDay
	DurationHours      float64
	Status             string
}

// AffinityScore is the predicted compatibility between an employee and a candidate shift
type AffinityScore struct {
	EmployeeID      string
	ShiftTemplateID string
	ShiftDate       time.Time
	PreferenceScore float64
	Confidence      float64
	Factors         map[string]float64
}

// UnallocatedIdentifier marks rows in historical exports that were never assigned to anyone
const UnallocatedIdentifier = "**UNALLOCATED**"

// NormalizeIdentifier lower-cases an identifier and replaces spaces with underscores
func NormalizeIdentifier(id string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), " ", "_")
}

// IsUnallocated returns true if the identifier denotes an unassigned historical shift
func IsUnallocated(id string) bool {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return true
	}
	upper := strings.ToUpper(strings.Trim(trimmed, "*"))
	return upper == "UNALLOCATED"
}
