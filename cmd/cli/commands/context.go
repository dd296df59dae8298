package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/staffplan/internal/config"
	"github.com/jakechorley/staffplan/pkg/artifacts"
	"github.com/jakechorley/staffplan/pkg/clients/sheetsclient"
	"github.com/jakechorley/staffplan/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg       *config.Config
	Env       string
	Database  db.Database
	Artifacts *artifacts.FileStore
	Logger    *zap.Logger
	Ctx       context.Context

	sheetsClient *sheetsclient.Client
}

// SheetsClient returns the Google Sheets client, authenticating on first use.
// Only commands that read the historical export need it.
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	a.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(a.Ctx, oauthCfg, a.Env, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	a.sheetsClient = client
	return client, nil
}

// historyConfig returns the configured historical export or an error naming the missing section
func (a *AppContext) historyConfig() (*config.HistoryConfig, error) {
	if a.Cfg.History == nil {
		return nil, fmt.Errorf("history is not configured: add a history section with sheetID and tab")
	}
	return a.Cfg.History, nil
}
