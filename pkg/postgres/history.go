package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// GetHistoricalShifts retrieves all imported historical shift records in import order
func (d *DB) GetHistoricalShifts(ctx context.Context) ([]model.HistoricalShiftRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_identifier, COALESCE(department_name, ''), shift_date,
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
			COALESCE(duration_hours, 0)::float8, COALESCE(status, '')
		FROM historical_shifts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical shifts: %w", err)
	}
	defer rows.Close()

	var records []model.HistoricalShiftRecord
	for rows.Next() {
		var r model.HistoricalShiftRecord
		var shiftDate *time.Time
		var start, end *string
		if err := rows.Scan(&r.EmployeeIdentifier, &r.DepartmentName, &shiftDate, &start, &end,
			&r.DurationHours, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan historical shift: %w", err)
		}
		if shiftDate != nil {
			r.ShiftDate = *shiftDate
		}
		r.StartTime = parseOptionalTime(start)
		r.EndTime = parseOptionalTime(end)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating historical shifts: %w", err)
	}

	return records, nil
}

// InsertHistoricalShifts stores historical shift records in a single transaction
func (d *DB) InsertHistoricalShifts(ctx context.Context, records []model.HistoricalShiftRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		var shiftDate *time.Time
		if !r.ShiftDate.IsZero() {
			date := model.NormalizeDate(r.ShiftDate)
			shiftDate = &date
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO historical_shifts (employee_identifier, department_name, shift_date, start_time, end_time, duration_hours, status)
			VALUES ($1, $2, $3, $4::time, $5::time, $6, $7)
		`, r.EmployeeIdentifier, nullableString(r.DepartmentName), shiftDate,
			formatOptionalTime(r.StartTime), formatOptionalTime(r.EndTime), r.DurationHours, nullableString(r.Status))
		if err != nil {
			return fmt.Errorf("failed to insert historical shift: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func parseOptionalTime(s *string) *model.TimeOfDay {
	if s == nil {
		return nil
	}
	t, err := model.ParseTimeOfDay(*s)
	if err != nil {
		return nil
	}
	return &t
}

func formatOptionalTime(t *model.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
