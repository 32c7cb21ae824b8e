// Package config handles daemon-level configuration via Viper, grounded
// on bnema-waymon/internal/config. This is distinct from the per-device
// keymap configs internal/configdir scans: it configures the daemon
// itself — where to listen, where to scan, how verbose to be.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the daemon's own runtime configuration.
type Config struct {
	SocketPath string `mapstructure:"socket_path"`
	ConfigDir  string `mapstructure:"config_dir"`
	LogLevel   string `mapstructure:"log_level"`
	Niceness   int    `mapstructure:"niceness"`
}

// Default mirrors the original daemon's compiled-in defaults
// (`/run/keyd.socket`, `/etc/keyd`) plus the niceness boost
// SPEC_FULL.md §11 carries over from daemon.c's nice(-20).
var Default = Config{
	SocketPath: "/run/keyd.socket",
	ConfigDir:  "/etc/keyd",
	LogLevel:   "info",
	Niceness:   -20,
}

// Load reads /etc/keyd/keyd.toml (if present), environment variables
// prefixed KEYD_, and falls back to Default for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("keyd")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc/keyd")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "keyd"))
	}
	v.AddConfigPath(".")

	v.SetDefault("socket_path", Default.SocketPath)
	v.SetDefault("config_dir", Default.ConfigDir)
	v.SetDefault("log_level", Default.LogLevel)
	v.SetDefault("niceness", Default.Niceness)

	v.SetEnvPrefix("KEYD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading keyd.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
