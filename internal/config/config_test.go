// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100*time.Millisecond, cfg.Capture.Mouse.MoveCooldown)
	assert.Equal(t, 10.0, cfg.Capture.Mouse.MoveDistancePx)
	assert.Equal(t, 10, cfg.Capture.Keyboard.MaxBuffer)
	assert.Equal(t, 3, cfg.Replay.MaxRetries)
	assert.Equal(t, 120.0, cfg.Locator.AnchorRadius)
	assert.True(t, cfg.Safety.FailSafe)
	assert.Contains(t, cfg.Safety.SensitiveKeywords, "password")
	assert.Equal(t, "data/workflows.db", cfg.Storage.Path)
	assert.Empty(t, cfg.OCR.Command)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "negative move distance",
			mutate:  func(c *Config) { c.Capture.Mouse.MoveDistancePx = -1 },
			wantErr: "move_distance_px",
		},
		{
			name:    "zero key buffer",
			mutate:  func(c *Config) { c.Capture.Keyboard.MaxBuffer = 0 },
			wantErr: "max_buffer",
		},
		{
			name:    "negative replay retries",
			mutate:  func(c *Config) { c.Replay.MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name:    "zero click retries",
			mutate:  func(c *Config) { c.Locator.ClickRetries = 0 },
			wantErr: "click_retries",
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("capture.keyboard.max_buffer", 0)

	_, err := NewConfigFromViper(v)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNewConfigFromViperOverride(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("replay.max_retries", 7)
	v.Set("ocr.command", "recognizer")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Replay.MaxRetries)
	assert.Equal(t, "recognizer", cfg.OCR.Command)
}
