package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/staffplan/pkg/db"
)

// AppendTrainingRun inserts a training ledger entry. Entries are never updated.
func (d *DB) AppendTrainingRun(ctx context.Context, run db.TrainingRun) error {
	var completedAt *time.Time
	if run.CompletedAt != nil {
		utc := run.CompletedAt.UTC()
		completedAt = &utc
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO training_runs (id, model_type, status, started_at, completed_at, sample_count, metrics, artifact_handle, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.ModelType, run.Status, run.StartedAt.UTC(), completedAt, run.SampleCount,
		run.Metrics, nullableString(run.ArtifactHandle), nullableString(run.ErrorMessage))
	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// GetTrainingRuns retrieves ledger entries for a model type, newest first.
// An empty model type returns every entry.
func (d *DB) GetTrainingRuns(ctx context.Context, modelType string) ([]db.TrainingRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, model_type, status, started_at, completed_at, sample_count, metrics, artifact_handle, error_message
		FROM training_runs
		WHERE $1 = '' OR model_type = $1
		ORDER BY started_at DESC
	`, modelType)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []db.TrainingRun
	for rows.Next() {
		var r db.TrainingRun
		var artifactHandle, errorMessage *string
		if err := rows.Scan(&r.ID, &r.ModelType, &r.Status, &r.StartedAt, &r.CompletedAt,
			&r.SampleCount, &r.Metrics, &artifactHandle, &errorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		if artifactHandle != nil {
			r.ArtifactHandle = *artifactHandle
		}
		if errorMessage != nil {
			r.ErrorMessage = *errorMessage
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training runs: %w", err)
	}

	return runs, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
