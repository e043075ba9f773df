package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLogLevel       = "warn"
	DefaultPollIntervalMs = 50
	DefaultReadLength     = 8192
)

type Config struct {
	LogLevel             string `toml:"log_level"`
	PollIntervalMs       int    `toml:"poll_interval_ms"`
	ReadLength           int    `toml:"read_length"`
	KeepTrailingNewlines *bool  `toml:"keep_trailing_newlines"`
}

func Default() *Config {
	keep := false
	return &Config{
		LogLevel:             DefaultLogLevel,
		PollIntervalMs:       DefaultPollIntervalMs,
		ReadLength:           DefaultReadLength,
		KeepTrailingNewlines: &keep,
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "extproc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "extproc")
	}
	return filepath.Join(home, ".config", "extproc")
}

func ConfigDir() string {
	return configDir()
}

func ConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// Load reads the global config file. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg, err := loadFile(ConfigPath())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return Default(), nil
	}
	return withDefaults(Default(), cfg), nil
}

// loadFile returns nil without error when path does not exist.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := parseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if c.PollIntervalMs < 0 {
		return fmt.Errorf("poll_interval_ms: must not be negative, got %d", c.PollIntervalMs)
	}
	if c.ReadLength < 0 {
		return fmt.Errorf("read_length: must not be negative, got %d", c.ReadLength)
	}
	return nil
}

func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) TrimNewlines() bool {
	return c.KeepTrailingNewlines == nil || !*c.KeepTrailingNewlines
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}

func Save(cfg *Config) error {
	return saveFile(ConfigPath(), cfg)
}

func saveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
