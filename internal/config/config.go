// Copyright 2026 VaultFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config resolves the vaultfs configuration directory and the
// settings file stored in it.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vaultfs/internal/artifacts"
)

// DefaultQuotaLimit is the per-owner storage ceiling: 15 GiB.
const DefaultQuotaLimit = 15 * 1024 * 1024 * 1024

// getConfigDir returns the config directory path.
// Uses VAULTFS_CONFIG_DIR env var if set, otherwise defaults to ~/.vaultfs.
// Computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("VAULTFS_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vaultfs")
}

// Dir returns the configuration directory path.
func Dir() string {
	return getConfigDir()
}

// FilePath returns the settings file path.
func FilePath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// EnsureDir creates the config directory if it doesn't exist.
func EnsureDir() error {
	return os.MkdirAll(getConfigDir(), 0700)
}

// InitDir initializes the config directory with the default settings file.
func InitDir() error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := FilePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, artifacts.GlobalConfig, 0600); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}
	return nil
}

// Config represents the vaultfs settings from config.yaml.
type Config struct {
	VaultDir     string `yaml:"vault_dir"`     // default: <config dir>/vault
	DefaultOwner string `yaml:"default_owner"` // default: OS username
	QuotaLimit   int64  `yaml:"quota_limit"`   // bytes, default: 15 GiB
	LogLevel     string `yaml:"log_level"`     // trace, debug, info, warn, off
	BusyTimeout  int    `yaml:"busy_timeout"`  // SQLite busy_timeout (ms), 0 = default
}

// ApplyDefaults fills zero-value fields with their defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.VaultDir == "" {
		cfg.VaultDir = filepath.Join(getConfigDir(), "vault")
	}
	if cfg.DefaultOwner == "" {
		cfg.DefaultOwner = osUsername()
	}
	if cfg.QuotaLimit <= 0 {
		cfg.QuotaLimit = DefaultQuotaLimit
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "off"
	}
}

// LoggingEnabled returns whether logging is enabled (any level other than
// "off" or empty).
func (cfg *Config) LoggingEnabled() bool {
	level := strings.ToLower(cfg.LogLevel)
	return level != "" && level != "off"
}

func osUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// loadDefaults parses the embedded default config template.
func loadDefaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(artifacts.GlobalConfig, &cfg); err != nil {
		panic("failed to parse embedded default config: " + err.Error())
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads the settings from <config dir>/config.yaml. Falls back to the
// embedded defaults if the file doesn't exist.
func Load() (*Config, error) {
	data, err := os.ReadFile(FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			cfg := loadDefaults()
			return &cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save writes the settings to <config dir>/config.yaml.
func Save(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	header := []byte("# VaultFS settings\n# See: vaultfs --help\n\n")
	return os.WriteFile(FilePath(), append(header, data...), 0600)
}
