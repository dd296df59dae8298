package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/internal/config"
	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/core/training"
)

// DefaultModelType is used when no model name is given
const DefaultModelType = config.DefaultModelType

// TrainPreferenceModel trains a preference model from historical records, stores a new
// artifact and appends the attempt to the training ledger.
// Failures are reported on the result rather than returned.
func TrainPreferenceModel(
	ctx context.Context,
	records []model.HistoricalShiftRecord,
	modelName string,
	artifacts training.ArtifactWriter,
	ledger training.Ledger,
	logger *zap.Logger,
	opts ...training.Option,
) *training.Result {
	if modelName == "" {
		modelName = DefaultModelType
	}

	logger.Info("Training preference model",
		zap.String("model_type", modelName),
		zap.Int("records", len(records)))

	trainer := training.NewTrainer(artifacts, ledger, logger, opts...)
	return trainer.Train(ctx, records, modelName)
}
