// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Render  RenderConfig  `toml:"render"`
	Export  ExportConfig  `toml:"export"`
	Log     LogConfig     `toml:"log"`
	Changes ChangesConfig `toml:"changes"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// RenderConfig holds grid rendering settings.
type RenderConfig struct {
	ColumnWidth int    `toml:"column_width"` // cells per room column
	RowMinutes  int    `toml:"row_minutes"`  // minutes per grid row
	TimeGutter  bool   `toml:"time_gutter"`  // print start times left of the grid
	Fill        string `toml:"fill"`         // filler for empty cells, one cell wide
}

// ExportConfig holds settings shared by the exporters.
type ExportConfig struct {
	BaseURL    string `toml:"base_url"`    // public URL talk links are built from
	InstanceID string `toml:"instance_id"` // seeds the stable slot GUIDs
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text" or "json"
}

// ChangesConfig holds settings of the unreleased-changes detector.
type ChangesConfig struct {
	QueueSize int `toml:"queue_size"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Render: RenderConfig{
			ColumnWidth: 24,
			RowMinutes:  5,
			TimeGutter:  true,
			Fill:        " ",
		},
		Export: ExportConfig{
			InstanceID: "conftable",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Changes: ChangesConfig{
			QueueSize: 64,
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "conftable.db"
	}
	return filepath.Join(home, ".local", "share", "conftable", "conftable.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "conftable", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
// A .env file in the working directory is read first.
func Load() (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	return LoadFrom(DefaultConfigPath())
}

// LoadEnvFile reads KEY=VALUE lines into the environment. Variables that are
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies CONFTABLE_* environment variables, which take
// precedence over the file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CONFTABLE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	if v := os.Getenv("CONFTABLE_COLUMN_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONFTABLE_COLUMN_WIDTH: %w", err)
		}
		cfg.Render.ColumnWidth = n
	}
	if v := os.Getenv("CONFTABLE_ROW_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONFTABLE_ROW_MINUTES: %w", err)
		}
		cfg.Render.RowMinutes = n
	}
	if v := os.Getenv("CONFTABLE_TIME_GUTTER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONFTABLE_TIME_GUTTER: %w", err)
		}
		cfg.Render.TimeGutter = b
	}

	if v := os.Getenv("CONFTABLE_BASE_URL"); v != "" {
		cfg.Export.BaseURL = v
	}
	if v := os.Getenv("CONFTABLE_INSTANCE_ID"); v != "" {
		cfg.Export.InstanceID = v
	}

	if v := os.Getenv("CONFTABLE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CONFTABLE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.Render.ColumnWidth < 4 {
		return fmt.Errorf("column_width must be at least 4, got %d", c.Render.ColumnWidth)
	}
	if c.Render.RowMinutes <= 0 || 60%c.Render.RowMinutes != 0 {
		return fmt.Errorf("row_minutes must divide an hour, got %d", c.Render.RowMinutes)
	}
	if ansi.StringWidth(c.Render.Fill) != 1 {
		return fmt.Errorf("fill must be a single cell, got %q", c.Render.Fill)
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	if c.Changes.QueueSize < 1 {
		return errors.New("changes queue_size must be positive")
	}
	return nil
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
