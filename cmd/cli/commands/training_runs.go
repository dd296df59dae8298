package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staffplan/pkg/core/services"
	"github.com/jakechorley/staffplan/pkg/db"
)

// TrainingRunsCmd creates the trainingRuns command
func TrainingRunsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainingRuns [model_type]",
		Short: "List training ledger entries (defaults to the configured model type)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			modelType := app.Cfg.ModelType
			if len(args) > 0 {
				modelType = args[0]
			}
			if all {
				modelType = ""
			}

			result, err := services.ListTrainingRuns(app.Ctx, app.Database, app.Artifacts, modelType, app.Logger)
			if err != nil {
				return err
			}

			if len(result.Runs) == 0 {
				fmt.Printf("\nNo training runs found\n")
				printUntracked(result.UntrackedArtifacts)
				fmt.Println()
				return nil
			}

			fmt.Printf("\nFound %d training runs:\n\n", len(result.Runs))
			for _, run := range result.Runs {
				marker := " "
				if run.ID == result.CurrentID {
					marker = "*"
				}
				if slices.Contains(result.MissingArtifacts, run.ID) {
					marker = "!"
				}
				fmt.Printf("%s %s  %-22s %s%-9s%s %s  samples=%d",
					marker,
					run.ID,
					run.ModelType,
					runStatusColor(run.Status), run.Status, colorReset,
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.SampleCount)
				if run.ArtifactHandle != "" {
					fmt.Printf("  %s", run.ArtifactHandle)
				}
				if run.ErrorMessage != "" {
					fmt.Printf("  %s%s%s", colorDim, run.ErrorMessage, colorReset)
				}
				fmt.Println()
			}
			if result.CurrentID != "" {
				fmt.Printf("\n* current model\n")
			}
			if len(result.MissingArtifacts) > 0 {
				fmt.Printf("%s! artifact file missing from %s%s\n", colorRed, app.Artifacts.Dir(), colorReset)
			}
			printUntracked(result.UntrackedArtifacts)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "List runs of every model type")

	return cmd
}

func runStatusColor(status string) string {
	if status == db.TrainingStatusCompleted {
		return colorGreen
	}
	return colorRed
}

func printUntracked(handles []string) {
	if len(handles) == 0 {
		return
	}
	fmt.Printf("\n%d artifacts on disk are not in the ledger:\n", len(handles))
	for _, handle := range handles {
		fmt.Printf("  %s%s%s\n", colorDim, handle, colorReset)
	}
}
