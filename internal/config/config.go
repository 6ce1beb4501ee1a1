package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath     = "CONFIG_PATH"
	EnvDBConnection   = "DB_CONNECTION"
	EnvJWTSecret      = "JWT_SECRET"
	EnvJWTExpiry      = "JWT_EXPIRY"
	EnvWorldIDAppID   = "WORLD_ID_APP_ID"
	EnvRecognitionURL = "RECOGNITION_URL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// WorldIDConfig holds identity provider settings.
type WorldIDConfig struct {
	AppID  string `yaml:"app-id"`
	Action string `yaml:"action"`
}

// RecognitionConfig holds food recognition service settings.
type RecognitionConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings. Durations are
	// carried as strings ("30m", "720h") and parsed below.
	type fileConfig struct {
		JWT struct {
			Secret string `yaml:"secret"`
			Expiry string `yaml:"expiry"`
		} `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result.Secret = cfg.JWT.Secret
			if expiry, errParse := time.ParseDuration(strings.TrimSpace(cfg.JWT.Expiry)); errParse == nil && expiry > 0 {
				result.Expiry = expiry
			}
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// defaultVerifyAction is the World ID action name used when unconfigured.
const defaultVerifyAction = "verify-human"

// LoadWorldIDConfig loads identity provider settings from the YAML config file.
func LoadWorldIDConfig(configPath string) (WorldIDConfig, error) {
	// fileConfig maps the YAML fields needed for World ID settings.
	type fileConfig struct {
		WorldID WorldIDConfig `yaml:"world-id"`
	}

	result := WorldIDConfig{Action: defaultVerifyAction}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.WorldID
		}
	}

	if appID := strings.TrimSpace(os.Getenv(EnvWorldIDAppID)); appID != "" {
		result.AppID = appID
	}
	if strings.TrimSpace(result.Action) == "" {
		result.Action = defaultVerifyAction
	}
	return result, nil
}

// defaultRecognitionTimeout bounds the food analysis HTTP call.
const defaultRecognitionTimeout = 30 * time.Second

// LoadRecognitionConfig loads food recognition settings from the YAML config file.
func LoadRecognitionConfig(configPath string) (RecognitionConfig, error) {
	// fileConfig maps the YAML fields needed for recognition settings.
	type fileConfig struct {
		Recognition struct {
			BaseURL string `yaml:"base-url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"recognition"`
	}

	result := RecognitionConfig{Timeout: defaultRecognitionTimeout}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result.BaseURL = cfg.Recognition.BaseURL
			if timeout, errParse := time.ParseDuration(strings.TrimSpace(cfg.Recognition.Timeout)); errParse == nil && timeout > 0 {
				result.Timeout = timeout
			}
		}
	}

	if baseURL := strings.TrimSpace(os.Getenv(EnvRecognitionURL)); baseURL != "" {
		result.BaseURL = baseURL
	}
	if result.Timeout <= 0 {
		result.Timeout = defaultRecognitionTimeout
	}
	return result, nil
}
