package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cultivation-planner/internal/capacity"
	"cultivation-planner/internal/triage"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration cannot be used
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig holds the process configuration
type AppConfig struct {
	Port        string
	DBDriver    string
	DatabaseURL string
	DBPath      string
	LogLevel    string
	LogFormat   string
	EnginePath  string

	Engine EngineConfig
}

// EngineConfig tunes the planning engines; it is read from a YAML file
type EngineConfig struct {
	BedMarginM float64           `yaml:"bed_margin_m"`
	Irrigation triage.Thresholds `yaml:"irrigation"`
}

// DefaultEngineConfig returns the built-in engine tuning
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BedMarginM: capacity.FixedMarginM,
		Irrigation: triage.DefaultThresholds(),
	}
}

// Load reads an optional .env file, then environment variables, then the engine
// tuning file named by ENGINE_CONFIG.
func Load() (AppConfig, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	cfg := AppConfig{
		Port:        get("PORT", "8080"),
		DBDriver:    strings.ToLower(get("DB_DRIVER", "sqlite")),
		DatabaseURL: get("DATABASE_URL", ""),
		DBPath:      get("DB_PATH", "planner.db"),
		LogLevel:    get("LOG_LEVEL", "info"),
		LogFormat:   get("LOG_FORMAT", "text"),
		EnginePath:  get("ENGINE_CONFIG", ""),
	}

	engine, err := LoadEngineConfig(cfg.EnginePath)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Engine = engine

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// LoadEngineConfig reads the YAML tuning file. An empty path or a missing file yields
// the defaults; keys absent from the file keep their default value.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return EngineConfig{}, fmt.Errorf("failed to read engine config: %w", err)
	}

	var file struct {
		BedMarginM *float64 `yaml:"bed_margin_m"`
		Irrigation *struct {
			Levels             map[int]triage.LevelThresholds `yaml:"levels"`
			YoungThresholdDays *int                           `yaml:"young_threshold_days"`
			WindowDays         *int                           `yaml:"window_days"`
		} `yaml:"irrigation"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine config: %w", err)
	}

	if file.BedMarginM != nil {
		cfg.BedMarginM = *file.BedMarginM
	}
	if irr := file.Irrigation; irr != nil {
		if len(irr.Levels) > 0 {
			cfg.Irrigation.Levels = irr.Levels
		}
		if irr.YoungThresholdDays != nil {
			cfg.Irrigation.YoungThresholdDays = *irr.YoungThresholdDays
		}
		if irr.WindowDays != nil {
			cfg.Irrigation.WindowDays = *irr.WindowDays
		}
	}

	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate checks the engine tuning
func (c EngineConfig) Validate() error {
	if c.BedMarginM < 0 {
		return fmt.Errorf("%w: bed_margin_m %v is negative", ErrInvalidConfig, c.BedMarginM)
	}
	if err := c.Irrigation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the whole configuration
func (c AppConfig) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("%w: DB_PATH is required for sqlite", ErrInvalidConfig)
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported DB_DRIVER %q (valid: sqlite, postgres)", ErrInvalidConfig, c.DBDriver)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: unsupported LOG_FORMAT %q (valid: text, json)", ErrInvalidConfig, c.LogFormat)
	}
	return c.Engine.Validate()
}

// SlogLevel parses LogLevel
func (c AppConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat
func (c AppConfig) NewLogger() *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
