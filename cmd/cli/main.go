package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/cmd/cli/commands"
	"github.com/jakechorley/staffplan/internal/config"
	"github.com/jakechorley/staffplan/pkg/artifacts"
	"github.com/jakechorley/staffplan/pkg/db"
	"github.com/jakechorley/staffplan/pkg/postgres"
	"github.com/jakechorley/staffplan/pkg/sqlite"
	"github.com/jakechorley/staffplan/pkg/utils/logging"
)

var (
	env string
	app = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "staffplan",
		Short: "Staffplan CLI - Preference-aware staff scheduling",
		Long:  `A CLI tool for training employee preference models from shift history and generating staff schedules.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportHistoryCmd(app))
	rootCmd.AddCommand(commands.TrainCmd(app))
	rootCmd.AddCommand(commands.TrainingRunsCmd(app))
	rootCmd.AddCommand(commands.ScoreCmd(app))
	rootCmd.AddCommand(commands.GenerateCmd(app))
	rootCmd.AddCommand(commands.SchedulesCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and artifact store
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("driver", app.Cfg.Database.Driver),
		zap.String("model_type", app.Cfg.ModelType),
		zap.Int("schedule_overrides", len(app.Cfg.ScheduleOverrides)))

	app.Logger.Info("Connecting to database", zap.String("driver", app.Cfg.Database.Driver))
	app.Database, err = openDatabase(app.Ctx, app.Cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Logger.Info("Database initialized successfully")

	app.Artifacts, err = artifacts.NewFileStore(app.Cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	app.Logger.Debug("Artifact store ready", zap.String("dir", app.Artifacts.Dir()))

	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (db.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		database, err := postgres.NewDB(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return database, nil
	case config.DriverSQLite:
		database, err := sqlite.NewDB(cfg.URL)
		if err != nil {
			return nil, err
		}
		return database, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
