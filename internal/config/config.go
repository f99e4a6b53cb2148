// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr"`
	Locator LocatorConfig `mapstructure:"locator" yaml:"locator"`
	Replay  ReplayConfig  `mapstructure:"replay" yaml:"replay"`
	Safety  SafetyConfig  `mapstructure:"safety" yaml:"safety"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different console log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// CaptureConfig groups the per-tracker debounce and merge thresholds.
// These are tuning parameters, not correctness constraints; the defaults
// reproduce the recording behavior the converter and tests assume.
type CaptureConfig struct {
	Mouse    MouseConfig    `mapstructure:"mouse" yaml:"mouse"`
	Keyboard KeyboardConfig `mapstructure:"keyboard" yaml:"keyboard"`
	Apps     AppsConfig     `mapstructure:"apps" yaml:"apps"`
}

// MouseConfig holds the mouse tracker thresholds.
type MouseConfig struct {
	MoveCooldown       time.Duration `mapstructure:"move_cooldown" yaml:"move_cooldown"`
	MoveDistancePx     float64       `mapstructure:"move_distance_px" yaml:"move_distance_px"`
	DoubleClickTimeout time.Duration `mapstructure:"double_click_timeout" yaml:"double_click_timeout"`
	DoubleClickPx      float64       `mapstructure:"double_click_px" yaml:"double_click_px"`
	ScrollThreshold    float64       `mapstructure:"scroll_threshold" yaml:"scroll_threshold"`
	ScrollCooldown     time.Duration `mapstructure:"scroll_cooldown" yaml:"scroll_cooldown"`
	SelectionTimeout   time.Duration `mapstructure:"selection_timeout" yaml:"selection_timeout"`
}

// KeyboardConfig holds the keyboard tracker thresholds.
type KeyboardConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxBuffer     int           `mapstructure:"max_buffer" yaml:"max_buffer"`
}

// AppsConfig controls the frontmost-application poller.
type AppsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// OCRConfig selects the external text recognizer. An empty command disables
// text-anchored features (anchors at record time, find_by_text at replay).
type OCRConfig struct {
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

// LocatorConfig controls on-screen text location.
type LocatorConfig struct {
	FindTimeout   time.Duration `mapstructure:"find_timeout" yaml:"find_timeout"`
	CheckInterval time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
	ClickRetries  int           `mapstructure:"click_retries" yaml:"click_retries"`
	AnchorRadius  float64       `mapstructure:"anchor_radius" yaml:"anchor_radius"`
}

// ReplayConfig controls step execution.
type ReplayConfig struct {
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	TypeInterval time.Duration `mapstructure:"type_interval" yaml:"type_interval"`
	MoveDuration time.Duration `mapstructure:"move_duration" yaml:"move_duration"`
}

// SafetyConfig controls the pre-dispatch safety gate.
type SafetyConfig struct {
	FailSafe          bool     `mapstructure:"fail_safe" yaml:"fail_safe"`
	SensitiveKeywords []string `mapstructure:"sensitive_keywords" yaml:"sensitive_keywords"`
}

// StorageConfig locates the workflow database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "mimic-cli")
	v.SetDefault("logger.log_file", "mimic.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Capture: mouse --
	v.SetDefault("capture.mouse.move_cooldown", 100*time.Millisecond)
	v.SetDefault("capture.mouse.move_distance_px", 10.0)
	v.SetDefault("capture.mouse.double_click_timeout", 800*time.Millisecond)
	v.SetDefault("capture.mouse.double_click_px", 20.0)
	v.SetDefault("capture.mouse.scroll_threshold", 0.1)
	v.SetDefault("capture.mouse.scroll_cooldown", 200*time.Millisecond)
	v.SetDefault("capture.mouse.selection_timeout", 5*time.Second)

	// -- Capture: keyboard --
	v.SetDefault("capture.keyboard.flush_interval", 150*time.Millisecond)
	v.SetDefault("capture.keyboard.idle_timeout", 200*time.Millisecond)
	v.SetDefault("capture.keyboard.max_buffer", 10)

	// -- Capture: apps --
	v.SetDefault("capture.apps.poll_interval", 500*time.Millisecond)

	// -- OCR --
	v.SetDefault("ocr.command", "")
	v.SetDefault("ocr.args", []string{})

	// -- Locator --
	v.SetDefault("locator.find_timeout", 5*time.Second)
	v.SetDefault("locator.check_interval", 500*time.Millisecond)
	v.SetDefault("locator.click_retries", 3)
	v.SetDefault("locator.anchor_radius", 120.0)

	// -- Replay --
	v.SetDefault("replay.max_retries", 3)
	v.SetDefault("replay.retry_delay", time.Second)
	v.SetDefault("replay.type_interval", 80*time.Millisecond)
	v.SetDefault("replay.move_duration", 800*time.Millisecond)

	// -- Safety --
	v.SetDefault("safety.fail_safe", true)
	v.SetDefault("safety.sensitive_keywords", []string{"password", "credit card", "ssn"})

	// -- Storage --
	v.SetDefault("storage.path", "data/workflows.db")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Capture.Mouse.MoveDistancePx < 0 {
		return fmt.Errorf("capture.mouse.move_distance_px must not be negative")
	}
	if c.Capture.Keyboard.MaxBuffer <= 0 {
		return fmt.Errorf("capture.keyboard.max_buffer must be a positive integer")
	}
	if c.Capture.Apps.PollInterval <= 0 {
		return fmt.Errorf("capture.apps.poll_interval must be a positive duration")
	}
	if c.Replay.MaxRetries < 0 {
		return fmt.Errorf("replay.max_retries must not be negative")
	}
	if c.Locator.ClickRetries <= 0 {
		return fmt.Errorf("locator.click_retries must be a positive integer")
	}
	if c.Locator.CheckInterval <= 0 {
		return fmt.Errorf("locator.check_interval must be a positive duration")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is a required configuration field")
	}
	return nil
}
