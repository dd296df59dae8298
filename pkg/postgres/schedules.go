package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/staffplan/pkg/db"
)

// SaveSchedule inserts a schedule and all of its assignments in one transaction.
// Either everything is written or nothing is.
func (d *DB) SaveSchedule(ctx context.Context, schedule *db.Schedule, assignments []db.Assignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO schedules (id, name, start_date, end_date, status, generation_started_at, generation_completed_at,
			generation_duration_seconds, optimizer_score, model_assisted, notes)
		VALUES ($1, $2, $3::date, $4::date, $5, $6, $7, $8, $9, $10, $11)
	`, schedule.ID, schedule.Name, schedule.StartDate, schedule.EndDate, schedule.Status,
		utcPtr(schedule.GenerationStartedAt), utcPtr(schedule.GenerationCompletedAt),
		schedule.GenerationDurationSeconds, roundScore(schedule.OptimizerScore), schedule.ModelAssisted,
		nullableString(schedule.Notes))
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	if len(assignments) > 0 {
		batch := &pgx.Batch{}
		for _, a := range assignments {
			batch.Queue(`
				INSERT INTO assignments (id, schedule_id, employee_id, shift_template_id, shift_date, start_time, end_time, hours, is_confirmed)
				VALUES ($1, $2, $3, $4, $5::date, $6::time, $7::time, $8, $9)
			`, a.ID, schedule.ID, a.EmployeeID, a.ShiftTemplateID, a.ShiftDate, a.StartTime, a.EndTime, a.Hours, a.IsConfirmed)
		}

		br := tx.SendBatch(ctx, batch)
		for range assignments {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert assignment: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSchedules retrieves all schedules, most recent first
func (d *DB) GetSchedules(ctx context.Context) ([]db.Schedule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), status,
			generation_started_at, generation_completed_at, generation_duration_seconds,
			optimizer_score::float8, model_assisted, COALESCE(notes, '')
		FROM schedules
		ORDER BY generation_started_at DESC NULLS LAST, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []db.Schedule
	for rows.Next() {
		var s db.Schedule
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.Status,
			&s.GenerationStartedAt, &s.GenerationCompletedAt, &s.GenerationDurationSeconds,
			&s.OptimizerScore, &s.ModelAssisted, &s.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	return schedules, nil
}

// GetAssignments retrieves the assignments of a schedule ordered by date and start time
func (d *DB) GetAssignments(ctx context.Context, scheduleID string) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, schedule_id, employee_id, shift_template_id, to_char(shift_date, 'YYYY-MM-DD'),
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), hours::float8, is_confirmed
		FROM assignments
		WHERE schedule_id = $1
		ORDER BY shift_date, start_time, employee_id
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		if err := rows.Scan(&a.ID, &a.ScheduleID, &a.EmployeeID, &a.ShiftTemplateID, &a.ShiftDate,
			&a.StartTime, &a.EndTime, &a.Hours, &a.IsConfirmed); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// roundScore rounds the optimizer score to the stored precision
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
