package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database:           DatabaseConfig{Driver: "postgres", URL: "postgres://localhost/staffplan"},
		ModelsDir:          "models",
		ModelType:          DefaultModelType,
		MinTrainingSamples: 10,
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staffplan_config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	headcount := 3
	cfg := validConfig()
	cfg.History = &HistoryConfig{SheetID: "sheet123", Tab: "History"}
	cfg.ScheduleOverrides = []ScheduleOverride{
		{RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", Closed: true},
		{RRule: "FREQ=WEEKLY;BYDAY=SA", ShiftTemplateID: "tmpl-1", RequiredHeadcount: &headcount},
	}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mysql"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_MinTrainingSamplesAtLeastOne(t *testing.T) {
	cfg := validConfig()
	cfg.MinTrainingSamples = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_HistoryRequiresTab(t *testing.T) {
	cfg := validConfig()
	cfg.History = &HistoryConfig{SheetID: "sheet123"}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := validConfig()
	cfg.ScheduleOverrides = []ScheduleOverride{
		{RRule: "FREQ=WEEKLY;BYDAY=SU", Closed: true},
		{RRule: "INVALID_RRULE", Closed: true},
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in scheduleOverrides[1]")
}

func TestValidate_EmptyRRule(t *testing.T) {
	cfg := validConfig()
	cfg.ScheduleOverrides = []ScheduleOverride{{RRule: "", Closed: true}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_NegativeHeadcount(t *testing.T) {
	headcount := -1
	cfg := validConfig()
	cfg.ScheduleOverrides = []ScheduleOverride{{RRule: "FREQ=DAILY", RequiredHeadcount: &headcount}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_OverrideWithoutEffect(t *testing.T) {
	cfg := validConfig()
	cfg.ScheduleOverrides = []ScheduleOverride{{RRule: "FREQ=DAILY", ShiftTemplateID: "tmpl-1"}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must set closed or requiredHeadcount")
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	path := writeConfig(t, `
database:
  driver: sqlite
  url: staffplan.db
modelsDir: /var/lib/staffplan/models
modelType: weekly_model
minTrainingSamples: 25
history:
  sheetID: sheet123
  tab: History
scheduleOverrides:
  - rrule: "FREQ=WEEKLY;BYDAY=SU"
    shiftTemplateID: tmpl-1
    requiredHeadcount: 0
  - rrule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"
    closed: true
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "staffplan.db", cfg.Database.URL)
	assert.Equal(t, "/var/lib/staffplan/models", cfg.ModelsDir)
	assert.Equal(t, "weekly_model", cfg.ModelType)
	assert.Equal(t, 25, cfg.MinTrainingSamples)
	require.NotNil(t, cfg.History)
	assert.Equal(t, "History", cfg.History.Tab)

	require.Len(t, cfg.ScheduleOverrides, 2)
	require.NotNil(t, cfg.ScheduleOverrides[0].RequiredHeadcount)
	assert.Equal(t, 0, *cfg.ScheduleOverrides[0].RequiredHeadcount)
	assert.True(t, cfg.ScheduleOverrides[1].Closed)
	assert.Nil(t, cfg.ScheduleOverrides[1].RequiredHeadcount)
}

func TestLoadFromPath_AppliesDefaults(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	path := writeConfig(t, `
database:
  driver: postgres
  url: postgres://localhost/staffplan
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, DefaultModelType, cfg.ModelType)
	assert.Equal(t, DefaultMinTrainingSamples, cfg.MinTrainingSamples)
	assert.Nil(t, cfg.History)
	assert.Empty(t, cfg.ScheduleOverrides)
}

func TestLoadFromPath_EnvOverridesDatabaseURL(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "postgres://override/staffplan")
	path := writeConfig(t, `
database:
  driver: postgres
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://override/staffplan", cfg.Database.URL)
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	path := writeConfig(t, `
database:
  driver: postgres
  url: postgres://localhost/staffplan
scheduleOverrides:
  - rrule: "INVALID_RRULE_SYNTAX"
    closed: true
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: "postgres"
    invalid indentation
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffplan_oauth.test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "installed": {
    "client_id": "client.apps.googleusercontent.com",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost"]
  }
}`), 0644))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "client.apps.googleusercontent.com", cfg.Installed.ClientID)
}

func TestLoadOAuthClientFromPath_InvalidTokenURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffplan_oauth.test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "installed": {
    "client_id": "client",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "not-a-url",
    "client_secret": "secret"
  }
}`), 0644))

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "oauth client validation failed")
}
