package criteria

import (
	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

// Default returns the hard constraints in evaluation order:
// weekly hours, one shift per date, avoid_shift, avoid_days
func Default(preferences []model.EmployeePreference) []allocator.Constraint {
	return []allocator.Constraint{
		NewWeeklyHoursCriterion(),
		NewNoDoubleShiftsCriterion(),
		NewAvoidShiftCriterion(preferences),
		NewAvoidDaysCriterion(preferences),
	}
}
