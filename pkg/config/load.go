package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "REPORT_PUBLISHER_"
	// ConfigPathEnv overrides the config file location.
	ConfigPathEnv = EnvPrefix + "CONFIG"
)

// Default config file names to search for
var defaultConfigFiles = []string{
	".report-publisher.yaml",
	".report-publisher.yml",
}

// envOverrides mirrors the settings that can be set from the environment.
// Booleans are strings so an unset variable can be told apart from false.
type envOverrides struct {
	Platform       string `env:"PLATFORM"`
	Mode           string `env:"MODE"`
	Title          string `env:"TITLE"`
	HistoryLimit   int    `env:"HISTORY_LIMIT"`
	Alert          string `env:"ALERT"`
	ClearOnSuccess string `env:"ALERT_CLEAR_ON_SUCCESS"`
	Bucket         string `env:"STORAGE_BUCKET"`
	Prefix         string `env:"STORAGE_PREFIX"`
	BaseURL        string `env:"STORAGE_BASE_URL"`
	ReportDir      string `env:"REPORT_DIR"`
	LogLevel       string `env:"LOG_LEVEL"`
	LogFormat      string `env:"LOG_FORMAT"`
}

// Load loads configuration from a specific file path. Settings missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read config file: %s", path), err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse config file: %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("config validation failed", err).WithContext("path", path)
	}
	return cfg, nil
}

// LoadDefault searches for and loads configuration from default locations
// Search order:
// 1. Current directory
// 2. Parent directories (up to root)
// 3. User config directory ($HOME/.config/report-publisher/config.yaml)
func LoadDefault() (*Config, error) {
	path, err := findInParents(".")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return Load(path)
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigPath := filepath.Join(homeDir, ".config", "report-publisher", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return Load(userConfigPath)
		}
	}

	// No config found
	return DefaultConfig(), nil
}

// Resolve loads the config file (explicit path, ConfigPathEnv, or the
// default search) and applies environment overrides from l.
func Resolve(ctx context.Context, path string, l envconfig.Lookuper) (*Config, error) {
	if path == "" {
		if v, ok := l.Lookup(ConfigPathEnv); ok {
			path = v
		}
	}

	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = Load(path)
	} else {
		cfg, err = LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(ctx, cfg, l); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("config validation failed", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the REPORT_PUBLISHER_* variables served by l.
func ApplyEnv(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	var env envOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	}); err != nil {
		return errors.ConfigError("failed to read environment overrides", err)
	}

	setString(&cfg.Platform.Name, env.Platform)
	setString(&cfg.Annotation.Mode, env.Mode)
	setString(&cfg.Annotation.Title, env.Title)
	if env.HistoryLimit != 0 {
		cfg.Annotation.HistoryLimit = env.HistoryLimit
	}
	if err := setBool(&cfg.Annotation.Alert.Enabled, EnvPrefix+"ALERT", env.Alert); err != nil {
		return err
	}
	if err := setBool(&cfg.Annotation.Alert.ClearOnSuccess, EnvPrefix+"ALERT_CLEAR_ON_SUCCESS", env.ClearOnSuccess); err != nil {
		return err
	}
	setString(&cfg.Storage.Bucket, env.Bucket)
	setString(&cfg.Storage.Prefix, env.Prefix)
	setString(&cfg.Storage.BaseURL, env.BaseURL)
	setString(&cfg.Report.Dir, env.ReportDir)
	setString(&cfg.Global.LogLevel, env.LogLevel)
	setString(&cfg.Global.LogFormat, env.LogFormat)
	return nil
}

// findInParents searches for a config file in startDir and its parents.
// It returns "" when there is none.
func findInParents(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.ConfigError("failed to resolve working directory", err)
	}

	for {
		for _, filename := range defaultConfigFiles {
			configPath := filepath.Join(dir, filename)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			// Reached root
			return "", nil
		}
		dir = parentDir
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, name, v string) error {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("invalid boolean in %s", name), err)
	}
	*dst = b
	return nil
}
