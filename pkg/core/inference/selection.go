package inference

import (
	"time"

	"github.com/jakechorley/staffplan/pkg/db"
)

// SelectMostRecentCompleted returns the most recently completed run of the given model type
// that produced an artifact. Runs are ordered by completion time, falling back to start time;
// ties keep the earliest entry in the ledger. Returns false if no such run exists.
func SelectMostRecentCompleted(runs []db.TrainingRun, modelType string) (db.TrainingRun, bool) {
	var best db.TrainingRun
	found := false

	for _, run := range runs {
		if run.ModelType != modelType || run.Status != db.TrainingStatusCompleted || run.ArtifactHandle == "" {
			continue
		}
		if !found || finishedAt(run).After(finishedAt(best)) {
			best = run
			found = true
		}
	}

	return best, found
}

func finishedAt(run db.TrainingRun) time.Time {
	if run.CompletedAt != nil {
		return *run.CompletedAt
	}
	return run.StartedAt
}
