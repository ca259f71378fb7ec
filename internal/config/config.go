// Package config loads relicscan settings from a TOML file and RELICSCAN_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"relicscan/internal/theme"

	"github.com/BurntSushi/toml"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RELICSCAN_"

type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Capture  CaptureConfig  `toml:"capture"`
	Trigger  TriggerConfig  `toml:"trigger"`
	OCR      OCRConfig      `toml:"ocr"`
	Resolve  ResolveConfig  `toml:"resolve"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Dedupe   DedupeConfig   `toml:"dedupe"`
	Debug    DebugConfig    `toml:"debug"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Log      LogConfig      `toml:"log"`
}

type CatalogConfig struct {
	Path   string `toml:"path"`
	Prices string `toml:"prices"` // optional {name: platinum} sheet
}

type CaptureConfig struct {
	Tool    string   `toml:"tool"`    // import, scrot, gnome-screenshot; empty autodetects
	Window  string   `toml:"window"`  // window name for import
	Command []string `toml:"command"` // explicit argv with {file}
	File    string   `toml:"file"`    // replay a saved screenshot instead
	OffsetX int      `toml:"offset_x"`
	OffsetY int      `toml:"offset_y"`
}

type TriggerConfig struct {
	LogPath  string        `toml:"log_path"` // game log to tail; empty disables
	Debounce time.Duration `toml:"debounce"`
	Delay    time.Duration `toml:"delay"`
	Signal   bool          `toml:"signal"` // fire on SIGUSR1
	Markers  []string      `toml:"markers"`
}

type OCRConfig struct {
	Language  string        `toml:"language"`
	Workers   int           `toml:"workers"`
	Timeout   time.Duration `toml:"timeout"`
	MinScale  int           `toml:"min_scale"`
	Border    int           `toml:"border"`
	Whitelist string        `toml:"whitelist"` // empty keeps the engine default, WhitelistNone disables
}

// WhitelistNone in ocr.whitelist turns the character whitelist off.
const WhitelistNone = "none"

type ResolveConfig struct {
	Threshold float64 `toml:"threshold"`
	Category  string  `toml:"category"` // optional candidate filter
}

type PipelineConfig struct {
	Theme string `toml:"theme"` // empty detects per frame
}

type DedupeConfig struct {
	Distance int           `toml:"distance"` // max pHash distance treated as the same screen
	Window   time.Duration `toml:"window"`
}

type DebugConfig struct {
	Image string `toml:"image"` // annotated frame path; empty disables
}

type MetricsConfig struct {
	Listen string `toml:"listen"` // e.g. ":9090"; empty disables
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: "catalog.json"},
		Trigger: TriggerConfig{
			Debounce: 100 * time.Millisecond,
			Delay:    1500 * time.Millisecond,
			Signal:   true,
		},
		OCR: OCRConfig{
			Language: "eng",
			Workers:  4,
			Timeout:  3 * time.Second,
			MinScale: 96,
			Border:   12,
		},
		Resolve: ResolveConfig{Threshold: 0.75},
		Dedupe: DedupeConfig{
			Distance: 4,
			Window:   5 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Catalog.Path = getEnv("CATALOG", c.Catalog.Path)
	c.Catalog.Prices = getEnv("PRICES", c.Catalog.Prices)
	c.Capture.Tool = getEnv("CAPTURE_TOOL", c.Capture.Tool)
	c.Capture.Window = getEnv("CAPTURE_WINDOW", c.Capture.Window)
	c.Capture.File = getEnv("CAPTURE_FILE", c.Capture.File)
	c.Trigger.LogPath = getEnv("GAME_LOG", c.Trigger.LogPath)
	c.Trigger.Signal = getEnvBool("SIGNAL", c.Trigger.Signal)
	c.OCR.Language = getEnv("OCR_LANGUAGE", c.OCR.Language)
	c.OCR.Workers = getEnvInt("OCR_WORKERS", c.OCR.Workers)
	c.Resolve.Threshold = getEnvFloat("THRESHOLD", c.Resolve.Threshold)
	c.Resolve.Category = getEnv("CATEGORY", c.Resolve.Category)
	c.Pipeline.Theme = getEnv("THEME", c.Pipeline.Theme)
	c.Debug.Image = getEnv("DEBUG_IMAGE", c.Debug.Image)
	c.Metrics.Listen = getEnv("METRICS_LISTEN", c.Metrics.Listen)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	var err error
	if c.OCR.Timeout, err = getEnvDuration("OCR_TIMEOUT", c.OCR.Timeout); err != nil {
		return err
	}
	if c.Trigger.Delay, err = getEnvDuration("TRIGGER_DELAY", c.Trigger.Delay); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.path is required"))
	}
	if c.Resolve.Threshold <= 0 || c.Resolve.Threshold > 1 {
		errs = append(errs, fmt.Errorf("resolve.threshold %v outside (0, 1]", c.Resolve.Threshold))
	}
	if c.OCR.Workers < 1 {
		errs = append(errs, fmt.Errorf("ocr.workers must be at least 1, got %d", c.OCR.Workers))
	}
	if c.OCR.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ocr.timeout must be positive, got %s", c.OCR.Timeout))
	}
	if c.OCR.MinScale < 0 || c.OCR.Border < 0 {
		errs = append(errs, errors.New("ocr.min_scale and ocr.border must not be negative"))
	}
	if c.Trigger.Debounce < 0 || c.Trigger.Delay < 0 {
		errs = append(errs, errors.New("trigger.debounce and trigger.delay must not be negative"))
	}
	if c.Dedupe.Distance < 0 {
		errs = append(errs, fmt.Errorf("dedupe.distance must not be negative, got %d", c.Dedupe.Distance))
	}
	if _, err := c.ThemeOverride(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ThemeOverride returns the configured theme, or nil to detect per frame.
func (c *Config) ThemeOverride() (*theme.Theme, error) {
	if c.Pipeline.Theme == "" {
		return nil, nil
	}
	th, err := theme.Parse(c.Pipeline.Theme)
	if err != nil {
		return nil, fmt.Errorf("pipeline.theme: %w", err)
	}
	return &th, nil
}

// OCRWhitelist resolves ocr.whitelist. ok is false when the engine default
// applies; otherwise chars is the whitelist to set, empty for none.
func (c *Config) OCRWhitelist() (chars string, ok bool) {
	switch c.OCR.Whitelist {
	case "":
		return "", false
	case WhitelistNone:
		return "", true
	default:
		return c.OCR.Whitelist, true
	}
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return d, nil
}
