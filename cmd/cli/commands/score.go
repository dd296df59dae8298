package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/pkg/core/model"
	"github.com/jakechorley/staffplan/pkg/core/services"
)

// ScoreCmd creates the score command
func ScoreCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <shift_template_id> <date>",
		Short: "Rank a department's employees for one shift",
		Long:  "Rank the active employees of a shift template's department for one date. The date is YYYY-MM-DD.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseISODate(args[1])
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}

			app.Logger.Debug("score command",
				zap.String("shift_template_id", args[0]),
				zap.Time("date", date))

			result, err := services.ScoreCandidates(app.Ctx, app.Database, app.Artifacts, args[0], date, app.Cfg.ModelType, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s (%s %s-%s) on %s\n",
				result.Template.Name,
				result.Template.DepartmentID,
				result.Template.StartTime,
				result.Template.EndTime,
				result.Date.Format("2006-01-02 (Monday)"))
			if result.ModelInfo != nil {
				fmt.Printf("%sModel %s, trained %s on %d samples%s\n\n",
					colorDim, result.ModelInfo.ArtifactHandle, result.ModelInfo.TrainedAt.Format(model.DateFormat),
					result.ModelInfo.SampleCount, colorReset)
			} else {
				fmt.Println()
			}

			if len(result.Scores) == 0 {
				fmt.Printf("No active employees in %s\n\n", result.Template.DepartmentID)
				return nil
			}

			nameWidth := 20
			for _, e := range result.Employees {
				nameWidth = max(nameWidth, len(e.FullName()))
			}

			for i, s := range result.Scores {
				e := result.Employees[s.EmployeeID]
				color := scoreColor(s.PreferenceScore, colorGreen, colorYellow, colorRed)
				fmt.Printf("  %2d. %-*s %s%.3f%s  confidence %.2f  %s%s%s\n",
					i+1, nameWidth, e.FullName(),
					color, s.PreferenceScore, colorReset,
					s.Confidence,
					colorDim, formatFactors(s.Factors), colorReset)
			}
			fmt.Println()

			printWarnings(result.Warnings)
			return nil
		},
	}
}
