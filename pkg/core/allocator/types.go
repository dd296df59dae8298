package allocator

import (
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// RunContext tracks the state accumulated during a single allocation run.
// It is owned by one run and must not be shared between concurrent runs.
type RunContext struct {
	// weeklyHours is keyed by employee ID and the Monday of the week
	weeklyHours map[weekKey]float64

	// assignedDates records which dates each employee already has a shift on
	assignedDates map[dateKey]bool
}

type weekKey struct {
	employeeID string
	weekStart  time.Time
}

type dateKey struct {
	employeeID string
	date       time.Time
}

// NewRunContext creates an empty run context
func NewRunContext() *RunContext {
	return &RunContext{
		weeklyHours:   make(map[weekKey]float64),
		assignedDates: make(map[dateKey]bool),
	}
}

// WeeklyHours returns the hours assigned to the employee during this run in the week containing date
func (rc *RunContext) WeeklyHours(employeeID string, date time.Time) float64 {
	return rc.weeklyHours[weekKey{employeeID, model.WeekStart(date)}]
}

// HasShiftOn returns true if the employee has already been assigned a shift on the date during this run
func (rc *RunContext) HasShiftOn(employeeID string, date time.Time) bool {
	return rc.assignedDates[dateKey{employeeID, model.NormalizeDate(date)}]
}

// Record updates the trackers after an assignment is accepted
func (rc *RunContext) Record(employeeID string, date time.Time, hours float64) {
	rc.weeklyHours[weekKey{employeeID, model.WeekStart(date)}] += hours
	rc.assignedDates[dateKey{employeeID, model.NormalizeDate(date)}] = true
}

// TemplateOverride customises shift templates on the dates it applies to
type TemplateOverride struct {
	// AppliesTo returns true for dates the override affects
	AppliesTo func(date time.Time) bool

	// ShiftTemplateID limits the override to one template (empty means all templates)
	ShiftTemplateID string

	// RequiredHeadcount replaces the template's headcount if set
	RequiredHeadcount *int

	// Closed removes the template from the matching dates entirely
	Closed bool
}

func (o TemplateOverride) matches(templateID string, date time.Time) bool {
	if o.ShiftTemplateID != "" && o.ShiftTemplateID != templateID {
		return false
	}
	return o.AppliesTo != nil && o.AppliesTo(date)
}

// Assignment is a single accepted employee-shift pairing
type Assignment struct {
	EmployeeID      string
	ShiftTemplateID string
	ShiftDate       time.Time
	StartTime       model.TimeOfDay
	EndTime         model.TimeOfDay
	Hours           float64

	// Score is the ranking score (including preference boosts) the employee was selected with
	Score float64
}

// RankedCandidate is an employee with the score used to order them for a shift
type RankedCandidate struct {
	Employee model.Employee
	Score    float64
}
