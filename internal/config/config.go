// Package config provides configuration loading and management for the
// bundle registry server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variables read by the server.
const EnvPrefix = "DAGSMITH"

// BundleBackendsEnvVar overrides the bundleBackends setting from the
// environment. DagSmith deployments usually inject the bundle list this way
// so that configuration changes are picked up without editing the file.
const BundleBackendsEnvVar = EnvPrefix + "_DAG_BUNDLES__BACKENDS"

const defaultRefreshInterval = 5 * time.Minute

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DagsFolder is the orchestrator's base workflow-definition directory.
	// It backs the built-in dags-folder bundle when no explicit bundle
	// configuration is present.
	DagsFolder string `yaml:"dagsFolder"`

	// DefaultRefreshInterval is the suggested cadence for external refresh
	// loops when a bundle does not set its own (e.g. "5m", "300s")
	DefaultRefreshInterval string `yaml:"defaultRefreshInterval,omitempty"`

	// GitCacheDir is the directory git-backed bundles clone into.
	// Defaults to a dagsmith-bundles directory under the OS temp dir.
	GitCacheDir string `yaml:"gitCacheDir,omitempty"`

	// BundleBackends is the raw JSON bundle configuration setting. A nil
	// value means the setting is absent and the dags-folder default
	// applies; an explicit "[]" means zero bundles.
	BundleBackends *string `yaml:"bundleBackends,omitempty"`

	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// This is the recommended approach for production deployments.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum size of the connection pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g. "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from the DAGSMITH_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper
// password handling. The password is URL-escaped to handle special characters.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file, then applies
// environment overrides.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyEnvOverrides()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides overlays environment-sourced settings onto the file
// configuration. The bundle backends variable distinguishes "unset" from
// "set to an empty list", so os.LookupEnv is used rather than os.Getenv.
func (c *Config) applyEnvOverrides() {
	if raw, ok := os.LookupEnv(BundleBackendsEnvVar); ok {
		c.BundleBackends = &raw
	}
	if folder := os.Getenv(EnvPrefix + "_DAGS_FOLDER"); folder != "" {
		c.DagsFolder = folder
	}
}

// GetDefaultRefreshInterval returns the configured default refresh interval,
// falling back to five minutes.
func (c *Config) GetDefaultRefreshInterval() time.Duration {
	if c.DefaultRefreshInterval == "" {
		return defaultRefreshInterval
	}
	d, err := time.ParseDuration(c.DefaultRefreshInterval)
	if err != nil {
		return defaultRefreshInterval
	}
	return d
}

// GetGitCacheDir returns the git clone cache directory, defaulting to a
// dagsmith-bundles directory under the OS temp dir.
func (c *Config) GetGitCacheDir() string {
	if c.GitCacheDir != "" {
		return c.GitCacheDir
	}
	return filepath.Join(os.TempDir(), "dagsmith-bundles")
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.DagsFolder == "" {
		return fmt.Errorf("dagsFolder is required")
	}

	if c.DefaultRefreshInterval != "" {
		if _, err := time.ParseDuration(c.DefaultRefreshInterval); err != nil {
			return fmt.Errorf("defaultRefreshInterval must be a valid duration (e.g. '30s', '5m'): %w", err)
		}
	}

	return nil
}
