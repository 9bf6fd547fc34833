// Package config loads daemon and engine configuration from a YAML
// file and DAYTRACK_* environment variables, with environment taking
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full runtime configuration.
type Config struct {
	// Remote is the base URL of the remote REST endpoint.
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`

	// Local configures the on-disk store.
	Local LocalConfig `yaml:"local" mapstructure:"local"`

	// Daemon configures trigger timing.
	Daemon DaemonConfig `yaml:"daemon" mapstructure:"daemon"`

	// Dashboard configures the WebSocket event server.
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
}

// RemoteConfig identifies the remote endpoint and account.
type RemoteConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	OwnerID string `yaml:"owner_id" mapstructure:"owner_id"`
}

// LocalConfig configures the local store.
type LocalConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// DaemonConfig configures cycle scheduling.
type DaemonConfig struct {
	SyncInterval     time.Duration `yaml:"sync_interval" mapstructure:"sync_interval"`
	DebounceInterval time.Duration `yaml:"debounce_interval" mapstructure:"debounce_interval"`
	ProbeInterval    time.Duration `yaml:"probe_interval" mapstructure:"probe_interval"`
	LogPath          string        `yaml:"log_path" mapstructure:"log_path"`
}

// DashboardConfig configures the event server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Port    int  `yaml:"port" mapstructure:"port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Local: LocalConfig{
			DBPath: defaultDBPath(),
		},
		Daemon: DaemonConfig{
			SyncInterval:     5 * time.Minute,
			DebounceInterval: 500 * time.Millisecond,
			ProbeInterval:    15 * time.Second,
		},
		Dashboard: DashboardConfig{
			Enabled: false,
			Port:    8080,
		},
	}
}

// Load reads configuration from path, falling back to defaults for
// anything unset. A missing file is not an error; environment
// variables (DAYTRACK_REMOTE_API_KEY and friends) still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DAYTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("remote.url", defaults.Remote.URL)
	v.SetDefault("remote.api_key", defaults.Remote.APIKey)
	v.SetDefault("remote.owner_id", defaults.Remote.OwnerID)
	v.SetDefault("local.db_path", defaults.Local.DBPath)
	v.SetDefault("daemon.sync_interval", defaults.Daemon.SyncInterval)
	v.SetDefault("daemon.debounce_interval", defaults.Daemon.DebounceInterval)
	v.SetDefault("daemon.probe_interval", defaults.Daemon.ProbeInterval)
	v.SetDefault("daemon.log_path", defaults.Daemon.LogPath)
	v.SetDefault("dashboard.enabled", defaults.Dashboard.Enabled)
	v.SetDefault("dashboard.port", defaults.Dashboard.Port)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "daytrack.yaml"
	}
	return filepath.Join(home, ".daytrack", "config.yaml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "daytrack.db"
	}
	return filepath.Join(home, ".daytrack", "daytrack.db")
}
