package criteria

import (
	"time"

	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

// ReasonAlreadyAssigned is reported when an employee already works another shift that day
const ReasonAlreadyAssigned = "already has a shift on this date"

// NoDoubleShiftsCriterion prevents an employee from working more than one shift per date
type NoDoubleShiftsCriterion struct{}

// NewNoDoubleShiftsCriterion creates a new NoDoubleShiftsCriterion
func NewNoDoubleShiftsCriterion() *NoDoubleShiftsCriterion {
	return &NoDoubleShiftsCriterion{}
}

func (c *NoDoubleShiftsCriterion) Name() string {
	return "NoDoubleShifts"
}

func (c *NoDoubleShiftsCriterion) Check(run *allocator.RunContext, employee model.Employee, template model.ShiftTemplate, date time.Time) *allocator.ConstraintViolation {
	if !run.HasShiftOn(employee.ID, date) {
		return nil
	}
	return allocator.NewViolation(c.Name(), employee, template, date, ReasonAlreadyAssigned)
}
