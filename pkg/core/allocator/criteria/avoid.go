package criteria

import (
	"time"

	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

// Rejection reasons for explicit avoid preferences
const (
	ReasonAvoidShift = "employee marked shift as avoid"
	ReasonAvoidDay   = "employee marked day as avoid"
)

// AvoidShiftCriterion treats an active avoid_shift preference as a hard constraint.
// Preferences with a validity window only apply to dates inside it.
type AvoidShiftCriterion struct {
	preferences map[string][]model.EmployeePreference
}

// NewAvoidShiftCriterion creates a new AvoidShiftCriterion from the employees' preferences
func NewAvoidShiftCriterion(preferences []model.EmployeePreference) *AvoidShiftCriterion {
	return &AvoidShiftCriterion{preferences: indexPreferences(preferences, model.AvoidShift)}
}

func (c *AvoidShiftCriterion) Name() string {
	return "AvoidShift"
}

func (c *AvoidShiftCriterion) Check(run *allocator.RunContext, employee model.Employee, template model.ShiftTemplate, date time.Time) *allocator.ConstraintViolation {
	for _, p := range c.preferences[employee.ID] {
		if p.ShiftTemplateID == template.ID && p.AppliesOn(date) {
			return allocator.NewViolation(c.Name(), employee, template, date, ReasonAvoidShift)
		}
	}
	return nil
}

// AvoidDaysCriterion treats an active avoid_days preference as a hard constraint
type AvoidDaysCriterion struct {
	preferences map[string][]model.EmployeePreference
}

// NewAvoidDaysCriterion creates a new AvoidDaysCriterion from the employees' preferences
func NewAvoidDaysCriterion(preferences []model.EmployeePreference) *AvoidDaysCriterion {
	return &AvoidDaysCriterion{preferences: indexPreferences(preferences, model.AvoidDays)}
}

func (c *AvoidDaysCriterion) Name() string {
	return "AvoidDays"
}

func (c *AvoidDaysCriterion) Check(run *allocator.RunContext, employee model.Employee, template model.ShiftTemplate, date time.Time) *allocator.ConstraintViolation {
	day := model.DayIndex(date)
	for _, p := range c.preferences[employee.ID] {
		if p.DayOfWeek != nil && *p.DayOfWeek == day && p.AppliesOn(date) {
			return allocator.NewViolation(c.Name(), employee, template, date, ReasonAvoidDay)
		}
	}
	return nil
}

// indexPreferences groups active preferences of one type by employee
func indexPreferences(preferences []model.EmployeePreference, preferenceType model.PreferenceType) map[string][]model.EmployeePreference {
	index := make(map[string][]model.EmployeePreference)
	for _, p := range preferences {
		if p.Type != preferenceType || !p.IsActive {
			continue
		}
		index[p.EmployeeID] = append(index[p.EmployeeID], p)
	}
	return index
}
