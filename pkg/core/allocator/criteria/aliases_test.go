package criteria

import (
	"time"

	"github.com/jakechorley/staffplan/pkg/core/allocator"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

// Type aliases for test readability - shared across all criterion tests
type (
	RunContext = allocator.RunContext
	Employee   = model.Employee
	Template   = model.ShiftTemplate
)

// 2024-01-01 is a Monday
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func intPtr(i int) *int {
	return &i
}

func employee(id string, maxHours float64) Employee {
	return Employee{ID: id, DepartmentID: "dept-1", MaxHoursPerWeek: maxHours, IsActive: true}
}

func template(id string, day int, hours float64) Template {
	return Template{ID: id, DepartmentID: "dept-1", DayOfWeek: day, DurationHours: hours, RequiredHeadcount: 1, IsActive: true}
}
