package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

func TestWeeklyHoursCriterion_Name(t *testing.T) {
	assert.Equal(t, "WeeklyHours", NewWeeklyHoursCriterion().Name())
}

func TestWeeklyHoursCriterion_UnderCap(t *testing.T) {
	c := NewWeeklyHoursCriterion()
	run := allocator.NewRunContext()
	run.Record("e1", monday, 32)

	assert.Nil(t, c.Check(run, employee("e1", 40), template("t1", 1, 8), monday.AddDate(0, 0, 1)))
}

func TestWeeklyHoursCriterion_AtCapExceeded(t *testing.T) {
	c := NewWeeklyHoursCriterion()
	run := allocator.NewRunContext()
	run.Record("e1", monday, 40)

	v := c.Check(run, employee("e1", 40), template("t1", 2, 4), monday.AddDate(0, 0, 2))
	require.NotNil(t, v)
	assert.Contains(t, v.Reason, ReasonExceedsWeeklyHours)
	assert.Equal(t, "WeeklyHours", v.Constraint)
	assert.Equal(t, "e1", v.EmployeeID)
	assert.Equal(t, "t1", v.ShiftTemplateID)
}

func TestWeeklyHoursCriterion_NewWeekResets(t *testing.T) {
	c := NewWeeklyHoursCriterion()
	run := allocator.NewRunContext()
	run.Record("e1", monday.AddDate(0, 0, 6), 40) // Sunday of week 1

	nextMonday := monday.AddDate(0, 0, 7)
	assert.Nil(t, c.Check(run, employee("e1", 40), template("t1", 0, 8), nextMonday))
}

func TestWeeklyHoursCriterion_ShiftLongerThanCap(t *testing.T) {
	c := NewWeeklyHoursCriterion()
	run := allocator.NewRunContext()

	assert.NotNil(t, c.Check(run, employee("e1", 6), template("t1", 0, 8), monday))
}

func TestNoDoubleShiftsCriterion(t *testing.T) {
	c := NewNoDoubleShiftsCriterion()
	run := allocator.NewRunContext()
	run.Record("e1", monday, 4)

	v := c.Check(run, employee("e1", 40), template("t2", 0, 4), monday)
	require.NotNil(t, v)
	assert.Equal(t, ReasonAlreadyAssigned, v.Reason)

	assert.Nil(t, c.Check(run, employee("e2", 40), template("t2", 0, 4), monday), "other employees unaffected")
	assert.Nil(t, c.Check(run, employee("e1", 40), template("t2", 1, 4), monday.AddDate(0, 0, 1)), "other dates unaffected")
}

func TestAvoidShiftCriterion(t *testing.T) {
	prefs := []model.EmployeePreference{
		{EmployeeID: "e1", Type: model.AvoidShift, ShiftTemplateID: "t1", IsActive: true},
		{EmployeeID: "e2", Type: model.AvoidShift, ShiftTemplateID: "t1", IsActive: false},
		{EmployeeID: "e3", Type: model.PreferredShift, ShiftTemplateID: "t1", IsActive: true},
	}
	c := NewAvoidShiftCriterion(prefs)
	run := allocator.NewRunContext()

	v := c.Check(run, employee("e1", 40), template("t1", 0, 8), monday)
	require.NotNil(t, v)
	assert.Equal(t, ReasonAvoidShift, v.Reason)

	assert.Nil(t, c.Check(run, employee("e1", 40), template("t2", 0, 8), monday), "different template")
	assert.Nil(t, c.Check(run, employee("e2", 40), template("t1", 0, 8), monday), "inactive preference")
	assert.Nil(t, c.Check(run, employee("e3", 40), template("t1", 0, 8), monday), "preferred is not avoid")
}

func TestAvoidShiftCriterion_ValidityWindow(t *testing.T) {
	start := monday.AddDate(0, 0, 7)
	prefs := []model.EmployeePreference{
		{EmployeeID: "e1", Type: model.AvoidShift, ShiftTemplateID: "t1", IsActive: true, StartDate: &start},
	}
	c := NewAvoidShiftCriterion(prefs)
	run := allocator.NewRunContext()

	assert.Nil(t, c.Check(run, employee("e1", 40), template("t1", 0, 8), monday))
	assert.NotNil(t, c.Check(run, employee("e1", 40), template("t1", 0, 8), start))
}

func TestAvoidDaysCriterion(t *testing.T) {
	prefs := []model.EmployeePreference{
		{EmployeeID: "e1", Type: model.AvoidDays, DayOfWeek: intPtr(5), IsActive: true},
		{EmployeeID: "e2", Type: model.AvoidDays, IsActive: true},
	}
	c := NewAvoidDaysCriterion(prefs)
	run := allocator.NewRunContext()
	saturday := monday.AddDate(0, 0, 5)

	v := c.Check(run, employee("e1", 40), template("sat", 5, 8), saturday)
	require.NotNil(t, v)
	assert.Equal(t, ReasonAvoidDay, v.Reason)

	assert.Nil(t, c.Check(run, employee("e1", 40), template("mon", 0, 8), monday))
	assert.Nil(t, c.Check(run, employee("e2", 40), template("sat", 5, 8), saturday), "preference without a day")
}

func TestDefault_EvaluationOrder(t *testing.T) {
	prefs := []model.EmployeePreference{
		{EmployeeID: "e1", Type: model.AvoidShift, ShiftTemplateID: "t1", IsActive: true},
		{EmployeeID: "e1", Type: model.AvoidDays, DayOfWeek: intPtr(0), IsActive: true},
	}
	constraints := Default(prefs)
	require.Len(t, constraints, 4)

	names := make([]string, len(constraints))
	for i, c := range constraints {
		names[i] = c.Name()
	}
	assert.Equal(t, []string{"WeeklyHours", "NoDoubleShifts", "AvoidShift", "AvoidDays"}, names)

	run := allocator.NewRunContext()
	e := employee("e1", 40)
	tmpl := template("t1", 0, 8)

	// Both avoid rules fail; the first in order is reported
	v := allocator.CheckEligibility(run, constraints, e, tmpl, monday)
	require.NotNil(t, v)
	assert.Equal(t, "AvoidShift", v.Constraint)

	// Weekly hours short-circuits before anything else
	run.Record("e1", monday, 40)
	v = allocator.CheckEligibility(run, constraints, e, tmpl, monday)
	require.NotNil(t, v)
	assert.Equal(t, "WeeklyHours", v.Constraint)
}

func TestCheckEligibility_NoConstraints(t *testing.T) {
	assert.Nil(t, allocator.CheckEligibility(allocator.NewRunContext(), nil, employee("e1", 0), template("t1", 0, 8), time.Now()))
}
