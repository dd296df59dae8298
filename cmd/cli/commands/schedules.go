package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// SchedulesCmd creates the schedules command
func SchedulesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedules [schedule_id]",
		Short: "List generated schedules, or the assignments of one schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				assignments, err := app.Database.GetAssignments(app.Ctx, args[0])
				if err != nil {
					return err
				}
				if len(assignments) == 0 {
					fmt.Printf("\nNo assignments for schedule %s\n\n", args[0])
					return nil
				}

				fmt.Printf("\nSchedule %s: %d assignments\n\n", args[0], len(assignments))
				lastDate := ""
				for _, a := range assignments {
					if a.ShiftDate != lastDate {
						date, err := model.ParseDate(a.ShiftDate)
						if err == nil {
							fmt.Printf("%s\n", date.Format("2006-01-02 (Monday)"))
						} else {
							fmt.Printf("%s\n", a.ShiftDate)
						}
						lastDate = a.ShiftDate
					}
					fmt.Printf("  %s-%s  %-24s %s (%.1fh)\n", a.StartTime, a.EndTime, a.ShiftTemplateID, a.EmployeeID, a.Hours)
				}
				fmt.Println()
				return nil
			}

			schedules, err := app.Database.GetSchedules(app.Ctx)
			if err != nil {
				return err
			}
			if len(schedules) == 0 {
				fmt.Printf("\nNo schedules found\n\n")
				return nil
			}

			fmt.Printf("\nFound %d schedules:\n\n", len(schedules))
			for _, s := range schedules {
				assisted := ""
				if s.ModelAssisted {
					assisted = " model"
				}
				fmt.Printf("  %s  %-24s %s to %s  %s%-10s%s score=%.4f%s\n",
					s.ID, s.Name, s.StartDate, s.EndDate,
					scheduleStatusColor(s.Status), s.Status, colorReset,
					s.OptimizerScore, assisted)
			}
			fmt.Println()
			return nil
		},
	}
}

func scheduleStatusColor(status string) string {
	switch model.ScheduleStatus(status) {
	case model.ScheduleGenerated:
		return colorGreen
	case model.ScheduleFailed:
		return colorRed
	default:
		return colorYellow
	}
}
