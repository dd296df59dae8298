package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/core/services"
	"github.com/jakechorley/staffplan/pkg/core/training"
)

const (
	sourceDB     = "db"
	sourceSheets = "sheets"
)

// TrainCmd creates the train command
func TrainCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a preference model from historical shifts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			modelName, _ := cmd.Flags().GetString("model-name")
			if modelName == "" {
				modelName = app.Cfg.ModelType
			}

			app.Logger.Debug("train command",
				zap.String("source", source),
				zap.String("model_name", modelName))

			records, err := loadHistory(app, source)
			if err != nil {
				return err
			}

			result := services.TrainPreferenceModel(
				app.Ctx,
				records,
				modelName,
				app.Artifacts,
				app.Database,
				app.Logger,
				training.WithMinSamples(app.Cfg.MinTrainingSamples),
			)

			if !result.Success {
				fmt.Printf("\n✗ Training failed for %s\n\n", result.ModelType)
				for _, e := range result.Errors {
					fmt.Printf("  ✗ %s\n", e)
				}
				printWarnings(result.Warnings)
				fmt.Println()
				return result.Err
			}

			fmt.Printf("\n✓ Model trained successfully!\n\n")
			fmt.Printf("Model Type:  %s\n", result.ModelType)
			fmt.Printf("Artifact:    %s\n", result.ArtifactHandle)
			fmt.Printf("Samples:     %d\n", result.SampleCount)
			fmt.Printf("Duration:    %.2fs\n\n", result.DurationSeconds)

			metrics := result.Metrics.AsMap()
			names := make([]string, 0, len(metrics))
			for name := range metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Printf("Metrics:\n")
			for _, name := range names {
				fmt.Printf("  %-26s %.2f\n", name, metrics[name])
			}
			fmt.Println()

			printWarnings(result.Warnings)
			return nil
		},
	}

	cmd.Flags().String("source", sourceDB, "Where to read historical shifts from (db or sheets)")
	cmd.Flags().String("model-name", "", "Model type to train (defaults to the configured model type)")

	return cmd
}

func loadHistory(app *AppContext, source string) ([]model.HistoricalShiftRecord, error) {
	switch source {
	case sourceDB:
		records, err := app.Database.GetHistoricalShifts(app.Ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load historical shifts: %w", err)
		}
		return records, nil
	case sourceSheets:
		historyCfg, err := app.historyConfig()
		if err != nil {
			return nil, err
		}
		client, err := app.SheetsClient()
		if err != nil {
			return nil, err
		}
		return client.GetHistoricalShifts(app.Ctx, historyCfg)
	default:
		return nil, fmt.Errorf("unknown history source %q (expected %s or %s)", source, sourceDB, sourceSheets)
	}
}
