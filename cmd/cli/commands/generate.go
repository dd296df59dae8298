package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/core/services"
)

// GenerateCmd creates the generate command
func GenerateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate <name> <start_date> <end_date>",
		Short:   "Generate a schedule for a date range",
		Long:    "Generate a schedule for an inclusive date range. Dates are YYYY-MM-DD.",
		Example: "  staffplan generate \"March week 1\" 2024-03-04 2024-03-10 --department kitchen",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseISODate(args[1])
			if err != nil {
				return fmt.Errorf("invalid start_date: %w", err)
			}
			end, err := parseISODate(args[2])
			if err != nil {
				return fmt.Errorf("invalid end_date: %w", err)
			}
			departments, _ := cmd.Flags().GetStringSlice("department")
			noModel, _ := cmd.Flags().GetBool("no-model")
			notes, _ := cmd.Flags().GetString("notes")

			app.Logger.Debug("generate command",
				zap.String("name", args[0]),
				zap.Time("start", start),
				zap.Time("end", end),
				zap.Strings("departments", departments),
				zap.Bool("no_model", noModel))

			result, err := services.GenerateSchedule(app.Ctx, app.Database, app.Artifacts, services.GenerateScheduleRequest{
				Name:          args[0],
				StartDate:     start,
				EndDate:       end,
				DepartmentIDs: departments,
				UseModel:      !noModel,
				ModelType:     app.Cfg.ModelType,
				Notes:         notes,
				Overrides:     app.Cfg.ScheduleOverrides,
			}, app.Logger)
			if err != nil {
				return err
			}

			if !result.Success {
				fmt.Printf("\n✗ Schedule generation failed\n\n")
				fmt.Printf("Schedule ID: %s (recorded as %s)\n", result.ScheduleID, result.Status)
				for _, e := range result.Errors {
					fmt.Printf("  ✗ %s\n", e)
				}
				fmt.Println()
				return result.Err
			}

			fmt.Printf("\n✓ Schedule generated successfully!\n\n")
			fmt.Printf("Schedule ID:     %s\n", result.ScheduleID)
			fmt.Printf("Dates:           %s to %s\n", start.Format(model.DateFormat), end.Format(model.DateFormat))
			fmt.Printf("Assignments:     %d\n", result.AssignmentsCreated)
			fmt.Printf("Unassigned:      %d of %d slots\n", result.UnassignedShiftCount, result.TotalRequiredSlots)
			fmt.Printf("Optimizer Score: %.4f\n", result.OptimizerScore)
			fmt.Printf("Model Assisted:  %t\n", result.ModelAssisted)
			fmt.Printf("Duration:        %.2fs\n\n", result.DurationSeconds)

			printWarnings(result.Warnings)
			return nil
		},
	}

	cmd.Flags().StringSlice("department", nil, "Restrict to department IDs (repeatable)")
	cmd.Flags().Bool("no-model", false, "Rank candidates in roster order instead of using the preference model")
	cmd.Flags().String("notes", "", "Notes stored with the schedule")

	return cmd
}
