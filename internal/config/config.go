package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModelType          = "preference_predictor"
	DefaultMinTrainingSamples = 10
	DefaultModelsDir          = "models"

	// DatabaseURLEnv overrides database.url when set
	DatabaseURLEnv = "STAFFPLAN_DATABASE_URL"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects the store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `yaml:"url" validate:"required"`
}

// HistoryConfig points at a Google Sheets export of historical shifts
type HistoryConfig struct {
	SheetID string `yaml:"sheetID" validate:"required"`
	Tab     string `yaml:"tab" validate:"required"`
}

// ScheduleOverride changes shift templates on dates matched by an rrule.
// An empty ShiftTemplateID applies the override to every template on the matched dates.
type ScheduleOverride struct {
	RRule             string `yaml:"rrule" validate:"required"`
	ShiftTemplateID   string `yaml:"shiftTemplateID,omitempty"`
	RequiredHeadcount *int   `yaml:"requiredHeadcount,omitempty" validate:"omitempty,min=0"`
	Closed            bool   `yaml:"closed,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Database           DatabaseConfig     `yaml:"database"`
	ModelsDir          string             `yaml:"modelsDir" validate:"required"`
	ModelType          string             `yaml:"modelType" validate:"required"`
	MinTrainingSamples int                `yaml:"minTrainingSamples" validate:"min=1"`
	History            *HistoryConfig     `yaml:"history,omitempty"`
	ScheduleOverrides  []ScheduleOverride `yaml:"scheduleOverrides,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads staffplan_config.<env>.yaml from the current or home directory.
// A .env file in the working directory is read first so it can supply STAFFPLAN_DATABASE_URL.
func LoadWithEnv(env string) (*Config, error) {
	_ = godotenv.Load(".env")
	if env != "" {
		_ = godotenv.Load(".env." + env)
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Config{
		ModelsDir:          DefaultModelsDir,
		ModelType:          DefaultModelType,
		MinTrainingSamples: DefaultMinTrainingSamples,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if url := os.Getenv(DatabaseURLEnv); url != "" {
		cfg.Database.URL = url
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.ScheduleOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in scheduleOverrides[%d]: %w", i, err)
		}
		if !override.Closed && override.RequiredHeadcount == nil {
			return fmt.Errorf("scheduleOverrides[%d] must set closed or requiredHeadcount", i)
		}
	}

	return nil
}

// findConfigFile searches for the config file in the current directory, then the home directory
func findConfigFile(env string) (string, error) {
	configFileName := "staffplan_config.yaml"
	if env != "" {
		configFileName = "staffplan_config." + env + ".yaml"
	}

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
