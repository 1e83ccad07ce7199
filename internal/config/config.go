// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stratavault/strata/internal/cache"
)

// Config is the full strata configuration tree, loaded from
// strata.yaml, STRATA_* environment variables and CLI flags.
type Config struct {
	DB    DBConfig     `mapstructure:"db" yaml:"db"`
	Cache cache.Config `mapstructure:"cache" yaml:"cache"`
	Quota QuotaConfig  `mapstructure:"quota" yaml:"quota"`
	Names NamesConfig  `mapstructure:"names" yaml:"names"`
	Log   LogConfig    `mapstructure:"log" yaml:"log"`
}

// DBConfig selects the storage backend.
type DBConfig struct {
	// Type is sqlite, postgres or mysql.
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// QuotaConfig holds the limits new accounts start with.
type QuotaConfig struct {
	WorkspaceLimit int `mapstructure:"workspace-limit" yaml:"workspace-limit"`
	SizeLimit      int `mapstructure:"size-limit" yaml:"size-limit"`
}

// NamesConfig tunes workspace and vault name validation.
type NamesConfig struct {
	MinLength int      `mapstructure:"min-length" yaml:"min-length"`
	MaxLength int      `mapstructure:"max-length" yaml:"max-length"`
	Blacklist []string `mapstructure:"blacklist" yaml:"blacklist"`
}

// LogConfig controls log output.
type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Defaults returns the built-in configuration values, keyed the way
// viper expects them.
func Defaults() map[string]any {
	return map[string]any{
		"db.type":               "sqlite",
		"db.dsn":                "strata.db",
		"cache.type":            "memory",
		"cache.key-prefix":      cache.DefaultKeyPrefix,
		"quota.workspace-limit": 10,
		"quota.size-limit":      2000,
		"names.min-length":      2,
		"names.max-length":      32,
		"log.debug":             false,
	}
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Strata")
		default:
			configDir = "/etc/strata"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "strata")
	}

	return filepath.Join(configDir, "strata.yaml"), nil
}

// LoadConfig reads the configuration with the usual precedence: CLI
// flags over environment over an explicit --config file over the
// standard locations over Defaults. When no config file exists, the
// returned Config still carries defaults, environment and flag values,
// and the viper.ConfigFileNotFoundError is passed through so callers
// can persist a first-run file.
func LoadConfig(cmd *cobra.Command, configFilePath *string) (Config, error) {
	var c Config
	var notFound error
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("strata")
	v.SetConfigType("yaml")

	if configFilePath != nil && *configFilePath != "" {
		v.SetConfigFile(*configFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		// Defaults still apply; hand the error to the caller at the end.
		notFound = err
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("strata")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, notFound
}

// WriteConfigFile persists c as YAML to the standard location.
func WriteConfigFile(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 since the DSN and redis password may carry credentials.
	return os.WriteFile(path, data, 0600)
}
