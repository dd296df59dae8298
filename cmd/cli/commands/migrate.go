package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and verify the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("migrate command", zap.String("driver", app.Cfg.Database.Driver))

			if err := app.Database.Migrate(app.Ctx); err != nil {
				return err
			}

			fmt.Printf("\n✓ %s schema is up to date\n\n", app.Cfg.Database.Driver)
			return nil
		},
	}
}
