package criteria

import (
	"fmt"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

// ReasonExceedsWeeklyHours is reported when a shift would take an employee over their weekly cap
const ReasonExceedsWeeklyHours = "exceeds max weekly hours"

// WeeklyHoursCriterion caps the hours an employee can be assigned within one week.
//
// Validity:
//   - Weeks run Monday to Sunday
//   - Hours already assigned in the week plus the shift's duration must not exceed MaxHoursPerWeek
//   - Only hours assigned during the current run count towards the cap
type WeeklyHoursCriterion struct{}

// NewWeeklyHoursCriterion creates a new WeeklyHoursCriterion
func NewWeeklyHoursCriterion() *WeeklyHoursCriterion {
	return &WeeklyHoursCriterion{}
}

func (c *WeeklyHoursCriterion) Name() string {
	return "WeeklyHours"
}

func (c *WeeklyHoursCriterion) Check(run *allocator.RunContext, employee model.Employee, template model.ShiftTemplate, date time.Time) *allocator.ConstraintViolation {
	existing := run.WeeklyHours(employee.ID, date)
	if existing+template.DurationHours <= employee.MaxHoursPerWeek {
		return nil
	}

	return allocator.NewViolation(c.Name(), employee, template, date,
		fmt.Sprintf("%s (%.1fh assigned + %.1fh > %.1fh)", ReasonExceedsWeeklyHours, existing, template.DurationHours, employee.MaxHoursPerWeek))
}
