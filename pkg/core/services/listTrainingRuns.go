package services

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/inference"
	"github.com/jakechorley/staffplan/pkg/db"
)

// ArtifactLister lists the artifact handles stored for a model type
type ArtifactLister interface {
	List(modelType string) ([]string, error)
}

// TrainingRunsResult lists ledger entries, newest first
type TrainingRunsResult struct {
	Runs []db.TrainingRun

	// CurrentID is the run whose artifact a scorer would load, empty if none
	CurrentID string

	// MissingArtifacts holds the IDs of runs whose artifact handle is not in the store
	MissingArtifacts []string
	// UntrackedArtifacts holds stored handles that no run in the ledger refers to
	UntrackedArtifacts []string
}

// ListTrainingRuns reads the training ledger. An empty modelType lists every model type,
// in which case no current run is reported and the artifact store is not checked.
// A nil artifacts skips the check as well.
func ListTrainingRuns(ctx context.Context, ledger inference.RunSource, artifacts ArtifactLister, modelType string, logger *zap.Logger) (*TrainingRunsResult, error) {
	logger.Debug("Fetching training runs", zap.String("model_type", modelType))

	runs, err := ledger.GetTrainingRuns(ctx, modelType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training runs: %w", err)
	}

	result := &TrainingRunsResult{Runs: runs}
	if modelType == "" {
		logger.Debug("Fetched training runs", zap.Int("count", len(runs)))
		return result, nil
	}

	if current, ok := inference.SelectMostRecentCompleted(runs, modelType); ok {
		result.CurrentID = current.ID
	}

	if artifacts != nil {
		stored, err := artifacts.List(modelType)
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts: %w", err)
		}
		result.MissingArtifacts, result.UntrackedArtifacts = reconcileArtifacts(runs, stored)
		if len(result.MissingArtifacts) > 0 {
			logger.Warn("Training runs reference missing artifacts", zap.Strings("run_ids", result.MissingArtifacts))
		}
	}

	logger.Debug("Fetched training runs", zap.Int("count", len(runs)), zap.String("current", result.CurrentID))
	return result, nil
}

// reconcileArtifacts compares ledger handles with the handles found in the store
func reconcileArtifacts(runs []db.TrainingRun, stored []string) (missing, untracked []string) {
	referenced := make(map[string]bool, len(runs))
	for _, run := range runs {
		if run.ArtifactHandle == "" {
			continue
		}
		referenced[run.ArtifactHandle] = true
		if !slices.Contains(stored, run.ArtifactHandle) {
			missing = append(missing, run.ID)
		}
	}
	for _, handle := range stored {
		if !referenced[handle] {
			untracked = append(untracked, handle)
		}
	}
	return missing, untracked
}
