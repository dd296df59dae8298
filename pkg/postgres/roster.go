package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// GetActiveEmployees retrieves active employees, optionally restricted to departments.
// Employees are returned in a stable order (last name, first name, id).
func (d *DB) GetActiveEmployees(ctx context.Context, departmentIDs []string) ([]model.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, COALESCE(department_id, ''), first_name, last_name, COALESCE(email, ''),
			max_hours_per_week::float8, min_hours_per_week::float8, is_active
		FROM employees
		WHERE is_active AND (cardinality($1::text[]) = 0 OR department_id = ANY($1))
		ORDER BY last_name, first_name, id
	`, departmentFilter(departmentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.DepartmentID, &e.FirstName, &e.LastName, &e.Email,
			&e.MaxHoursPerWeek, &e.MinHoursPerWeek, &e.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// GetActiveShiftTemplates retrieves active shift templates, optionally restricted to departments.
// Templates are returned ordered by start time within each day.
func (d *DB) GetActiveShiftTemplates(ctx context.Context, departmentIDs []string) ([]model.ShiftTemplate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, COALESCE(department_id, ''), name, day_of_week,
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
			duration_hours::float8, required_employees, is_active
		FROM shift_templates
		WHERE is_active AND (cardinality($1::text[]) = 0 OR department_id = ANY($1))
		ORDER BY day_of_week, start_time, name, id
	`, departmentFilter(departmentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query shift templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ShiftTemplate
	for rows.Next() {
		var t model.ShiftTemplate
		var start, end string
		if err := rows.Scan(&t.ID, &t.DepartmentID, &t.Name, &t.DayOfWeek, &start, &end,
			&t.DurationHours, &t.RequiredHeadcount, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan shift template: %w", err)
		}
		if t.StartTime, err = model.ParseTimeOfDay(start); err != nil {
			return nil, fmt.Errorf("shift template %s: %w", t.ID, err)
		}
		if t.EndTime, err = model.ParseTimeOfDay(end); err != nil {
			return nil, fmt.Errorf("shift template %s: %w", t.ID, err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift templates: %w", err)
	}

	return templates, nil
}

// GetTimeOffRequests retrieves time-off requests overlapping the date range
func (d *DB) GetTimeOffRequests(ctx context.Context, start, end time.Time) ([]model.TimeOffRequest, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, employee_id, start_date, end_date, request_type, status
		FROM time_off_requests
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY start_date, id
	`, model.NormalizeDate(start), model.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query time off requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TimeOffRequest
	for rows.Next() {
		var r model.TimeOffRequest
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.StartDate, &r.EndDate, &r.RequestType, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan time off request: %w", err)
		}
		requests = append(requests, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time off requests: %w", err)
	}

	return requests, nil
}

// GetActivePreferences retrieves all active employee preferences
func (d *DB) GetActivePreferences(ctx context.Context) ([]model.EmployeePreference, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, employee_id, preference_type, COALESCE(shift_template_id, ''), day_of_week,
			priority, start_date, end_date, is_active
		FROM employee_preferences
		WHERE is_active
		ORDER BY employee_id, priority DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var preferences []model.EmployeePreference
	for rows.Next() {
		var p model.EmployeePreference
		var preferenceType string
		var dayOfWeek *int16
		if err := rows.Scan(&p.ID, &p.EmployeeID, &preferenceType, &p.ShiftTemplateID, &dayOfWeek,
			&p.Priority, &p.StartDate, &p.EndDate, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		p.Type = model.PreferenceType(preferenceType)
		if dayOfWeek != nil {
			day := int(*dayOfWeek)
			p.DayOfWeek = &day
		}
		preferences = append(preferences, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}

	return preferences, nil
}

// departmentFilter avoids sending NULL for an empty filter
func departmentFilter(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
