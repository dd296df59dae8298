package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staffplan/pkg/core/services"
)

// ImportHistoryCmd creates the importHistory command
func ImportHistoryCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importHistory",
		Short: "Copy the historical shift export from Google Sheets into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadHistory(app, sourceSheets)
			if err != nil {
				return err
			}

			result, err := services.ImportHistory(app.Ctx, records, app.Database, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Imported %d historical shifts", result.Imported)
			if result.Unallocated > 0 {
				fmt.Printf(" (%d unallocated)", result.Unallocated)
			}
			fmt.Printf("\n\n")
			return nil
		},
	}
}
