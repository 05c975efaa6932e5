package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 1920, cfg.Render.Width)
	assert.Equal(t, 1080, cfg.Render.Height)
	assert.Equal(t, 30, cfg.Render.FPS)
	assert.True(t, cfg.Watermark.Enabled)
	assert.Equal(t, StageFrame, cfg.Watermark.Stage)
	assert.InDelta(t, 0.7, cfg.Watermark.Opacity, 1e-9)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[render]
width = 1280
height = 720
fps = 24
workers = 3

[encoder]
codec = "LIBX264"
quality = 20

[watermark]
enabled = false
stage = "Encoder"
`)

	cfg, _, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1280, cfg.Render.Width)
	assert.Equal(t, 720, cfg.Render.Height)
	assert.Equal(t, 24, cfg.Render.FPS)
	assert.Equal(t, 3, cfg.Render.Workers)
	assert.Equal(t, "libx264", cfg.Encoder.Codec)
	assert.Equal(t, 20, cfg.Encoder.Quality)
	assert.False(t, cfg.Watermark.Enabled)
	assert.Equal(t, StageEncoder, cfg.Watermark.Stage)
	// untouched sections keep defaults
	assert.Equal(t, "ffmpeg", cfg.Encoder.FFmpegPath)
	assert.Equal(t, "scene2video", cfg.Watermark.Label)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "[render]\nwidht = 10\n")
	_, _, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "[render]\ntemp_dir = \"~/frames\"\n")

	cfg, _, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "frames"), cfg.Render.TempDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "odd width", mutate: func(c *Config) { c.Render.Width = 1921 }, wantErr: "even"},
		{name: "zero height", mutate: func(c *Config) { c.Render.Height = 0 }, wantErr: "positive"},
		{name: "zero fps", mutate: func(c *Config) { c.Render.FPS = 0 }, wantErr: "render.fps"},
		{name: "negative workers", mutate: func(c *Config) { c.Render.Workers = -1 }, wantErr: "render.workers"},
		{name: "unknown codec", mutate: func(c *Config) { c.Encoder.Codec = "vp9" }, wantErr: "encoder.codec"},
		{name: "zero timeout", mutate: func(c *Config) { c.Encoder.TimeoutSeconds = 0 }, wantErr: "timeout_seconds"},
		{name: "bad stage", mutate: func(c *Config) { c.Watermark.Stage = "post" }, wantErr: "watermark.stage"},
		{name: "opacity above one", mutate: func(c *Config) { c.Watermark.Opacity = 1.5 }, wantErr: "watermark.opacity"},
		{name: "empty label", mutate: func(c *Config) { c.Watermark.Label = " " }, wantErr: "watermark.label"},
		{name: "empty label disabled", mutate: func(c *Config) {
			c.Watermark.Label = ""
			c.Watermark.Enabled = false
		}},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, toml.Unmarshal([]byte(SampleConfig()), &cfg))
	require.NoError(t, cfg.normalize())
	require.NoError(t, cfg.Validate())

	def := Default()
	require.NoError(t, def.normalize())
	assert.Equal(t, def, cfg)
}
