package allocator

import (
	"fmt"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// ConstraintViolation describes why a candidate was rejected for a shift.
// Violations are per-candidate and never abort a run.
type ConstraintViolation struct {
	Constraint      string
	EmployeeID      string
	ShiftTemplateID string
	ShiftDate       time.Time
	Reason          string
}

func (v *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s: employee %s cannot take %s on %s: %s",
		v.Constraint, v.EmployeeID, v.ShiftTemplateID, v.ShiftDate.Format(model.DateFormat), v.Reason)
}

// Constraint is a hard rule gating a candidate assignment
type Constraint interface {
	// Name returns a human-readable identifier for this constraint
	Name() string

	// Check returns nil if the employee may take the template on the date given the
	// run so far, or a violation describing the rejection
	Check(run *RunContext, employee model.Employee, template model.ShiftTemplate, date time.Time) *ConstraintViolation
}

// CheckEligibility evaluates the constraints in order and returns the first violation.
// Returns nil if the candidate is eligible.
func CheckEligibility(run *RunContext, constraints []Constraint, employee model.Employee, template model.ShiftTemplate, date time.Time) *ConstraintViolation {
	for _, c := range constraints {
		if v := c.Check(run, employee, template, date); v != nil {
			if v.Constraint == "" {
				v.Constraint = c.Name()
			}
			return v
		}
	}
	return nil
}

// NewViolation builds a violation for the given candidate
func NewViolation(constraint string, employee model.Employee, template model.ShiftTemplate, date time.Time, reason string) *ConstraintViolation {
	return &ConstraintViolation{
		Constraint:      constraint,
		EmployeeID:      employee.ID,
		ShiftTemplateID: template.ID,
		ShiftDate:       model.NormalizeDate(date),
		Reason:          reason,
	}
}
