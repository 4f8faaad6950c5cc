package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SettingsFileName is the settings file kept in the application directory.
const SettingsFileName = "settings.json"

// DatabaseFileName is the default database file created next to the
// settings when the operator has not chosen a path.
const DatabaseFileName = "database.sqlite"

// Config holds the small persistent facts the application needs before it
// can open the database. Hospital and department feed the patient-id
// prefix applied by the data-entry screens; font size belongs to the UI
// layer and is only carried here.
type Config struct {
	DBPath     string `mapstructure:"db_path"`
	Hospital   string `mapstructure:"hospital"`
	Department string `mapstructure:"department"`
	FontSize   int    `mapstructure:"font_size"`
}

// DefaultDir returns the application directory in the user's home.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".oncology-registry"), nil
}

// Load reads the settings file from dir, creating the directory and a
// default settings file on first run.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create app directory: %w", err)
	}

	settingsPath := filepath.Join(dir, SettingsFileName)

	v := viper.New()
	v.SetConfigFile(settingsPath)
	v.SetConfigType("json")

	v.SetDefault("db_path", filepath.Join(dir, DatabaseFileName))
	v.SetDefault("hospital", "")
	v.SetDefault("department", "")
	v.SetDefault("font_size", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		// First run: persist the defaults so the operator has a file to edit.
		if err := v.WriteConfigAs(settingsPath); err != nil {
			return nil, fmt.Errorf("write default settings: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can support opening the store.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is missing in configuration")
	}
	return nil
}

// Initialized reports whether both the settings file in dir and the
// database file it points to exist.
func Initialized(dir string) bool {
	cfg, err := Load(dir)
	if err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, SettingsFileName)); err != nil {
		return false
	}
	_, err = os.Stat(cfg.DBPath)
	return err == nil
}
