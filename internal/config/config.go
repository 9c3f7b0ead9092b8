// Package config loads the telemetry daemon's on-disk configuration,
// the way cmd/common.LoadConfig loads onedriver's: read YAML, merge
// defaults with mergo, validate, and fall back to defaults on any error
// rather than failing the process.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/imdario/mergo"
	yaml "gopkg.in/yaml.v3"

	"github.com/auriora/telemetrypm/internal/logging"
)

// Config is the top-level configuration for a telemetryd process.
type Config struct {
	LogLevel string `yaml:"log"`

	// MaxPendingRequests bounds how many uploads may be registered at
	// once; see tpm.Config.
	MaxPendingRequests uint32 `yaml:"maxPendingRequests"`

	// UploadRetryBackoff is the exponential backoff policy string, e.g.
	// "E,3000,300000,2,1".
	UploadRetryBackoff string `yaml:"uploadRetryBackoffConfig"`

	// StopTimeoutSeconds bounds how long HandleStop waits for in-flight
	// uploads to finish.
	StopTimeoutSeconds int `yaml:"stopTimeoutSeconds"`

	// MetricsNamespace prefixes the Prometheus collectors exposed by
	// pkg/metrics.
	MetricsNamespace string `yaml:"metricsNamespace"`
}

// DefaultConfigPath returns the default config location for telemetryd.
func DefaultConfigPath() string {
	confDir, err := os.UserConfigDir()
	if err != nil {
		logging.Error().Err(err).Msg("could not determine configuration directory")
	}
	return filepath.Join(confDir, "telemetryd/config.yml")
}

func createDefaultConfig() Config {
	return Config{
		LogLevel:           "info",
		MaxPendingRequests: 16,
		UploadRetryBackoff: "E,3000,300000,2,1",
		StopTimeoutSeconds: 30,
		MetricsNamespace:   "telemetrypm",
	}
}

func readConfigFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func parseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	err := yaml.Unmarshal(data, cfg)
	return cfg, err
}

func mergeWithDefaults(cfg *Config, defaults Config) error {
	return mergo.Merge(cfg, defaults)
}

func validateConfig(cfg *Config) error {
	if cfg.MaxPendingRequests == 0 {
		logging.Warn().Msg("maxPendingRequests must be positive, using default")
		cfg.MaxPendingRequests = 16
	}

	if !looksLikeBackoffSpec(cfg.UploadRetryBackoff) {
		logging.Warn().
			Str("uploadRetryBackoffConfig", cfg.UploadRetryBackoff).
			Msg("invalid backoff policy string, using default")
		cfg.UploadRetryBackoff = "E,3000,300000,2,1"
	}

	if cfg.StopTimeoutSeconds <= 0 {
		logging.Warn().
			Int("stopTimeoutSeconds", cfg.StopTimeoutSeconds).
			Msg("stop timeout must be positive, using default")
		cfg.StopTimeoutSeconds = 30
	}

	if cfg.MetricsNamespace == "" {
		return fmt.Errorf("metricsNamespace must not be empty")
	}

	return nil
}

// looksLikeBackoffSpec does a shallow syntactic check of a backoff policy
// string without depending on pkg/backoff, so the two packages can evolve
// independently; pkg/backoff.New does the authoritative parse at startup.
func looksLikeBackoffSpec(spec string) bool {
	return len(spec) > 0 && spec[0] == 'E'
}

// Load is the primary way of loading telemetryd's config. A missing,
// unreadable, unparseable, or invalid file logs a warning and falls back
// to defaults rather than failing the caller.
func Load(path string) *Config {
	defaults := createDefaultConfig()

	data, err := readConfigFile(path)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("configuration file not found, using defaults")
		return &defaults
	}

	cfg, err := parseConfig(data)
	if err != nil {
		logging.LogError(err, "could not parse configuration file, using defaults", "path", path)
		return &defaults
	}

	if err := mergeWithDefaults(cfg, defaults); err != nil {
		logging.LogError(err, "could not merge configuration with defaults", "path", path)
		return &defaults
	}

	if err := validateConfig(cfg); err != nil {
		logging.LogError(err, "invalid configuration, using defaults", "path", path)
		return &defaults
	}

	return cfg
}

// WriteConfig writes c to path as YAML, creating parent directories as
// needed.
func (c Config) WriteConfig(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		logging.LogError(err, "could not marshal config")
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		logging.LogError(err, "could not create directory for config file")
		return err
	}

	if err := os.WriteFile(path, out, 0600); err != nil {
		logging.LogError(err, "could not write config to disk")
		return err
	}

	logging.Debug().Str("path", path).Msg("configuration written to file")
	return nil
}
