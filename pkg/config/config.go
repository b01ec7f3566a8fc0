// Package config resolves run configuration from defaults, an optional YAML
// file, a .env file and FINMODEL_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"saas-projection/pkg/models"
)

const (
	EnvConfigPath = "FINMODEL_CONFIG_PATH"
	EnvDotEnvPath = "FINMODEL_ENV_FILE"
	EnvDSN        = "FINMODEL_DSN"
	EnvScenario   = "FINMODEL_SCENARIO"
	EnvStartMonth = "FINMODEL_START_MONTH"
	EnvEndMonth   = "FINMODEL_END_MONTH"
	EnvLogLevel   = "FINMODEL_LOG_LEVEL"
	EnvOutputDir  = "FINMODEL_OUTPUT_DIR"
	EnvInputs     = "FINMODEL_INPUTS"
	EnvStrict     = "FINMODEL_STRICT"
)

type Config struct {
	DB     DBConfig           `yaml:"db"`
	Run    models.RunSettings `yaml:"run"`
	Inputs string             `yaml:"inputs"`
	Output OutputConfig       `yaml:"output"`
	Log    LogConfig          `yaml:"log"`
}

type DBConfig struct {
	// DSN is a mariadb://, mysql:// or sqlite:// URL.
	DSN string `yaml:"dsn"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Run:    models.DefaultRunSettings(),
		Output: OutputConfig{Dir: "out"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load resolves the configuration. path may be empty, in which case
// FINMODEL_CONFIG_PATH is consulted; no file at all is not an error. The
// .env file only fills variables that are not already set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	dotenv := os.Getenv(EnvDotEnvPath)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if scenario := os.Getenv(EnvScenario); scenario != "" {
		cfg.Run.ScenarioID = scenario
	}
	if s := os.Getenv(EnvStartMonth); s != "" {
		m, err := models.ParseMonth(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStartMonth, err)
		}
		cfg.Run.StartMonth = m
	}
	if s := os.Getenv(EnvEndMonth); s != "" {
		m, err := models.ParseMonth(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvEndMonth, err)
		}
		cfg.Run.EndMonth = m
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Level = level
	}
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		cfg.Output.Dir = dir
	}
	if inputs := os.Getenv(EnvInputs); inputs != "" {
		cfg.Inputs = inputs
	}
	if s := os.Getenv(EnvStrict); s != "" {
		strict, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStrict, err)
		}
		cfg.Run.StrictValidation = strict
	}
	return nil
}
