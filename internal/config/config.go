package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Render holds frame and job defaults.
type Render struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	FPS       int    `toml:"fps"`
	Workers   int    `toml:"workers"` // 0 picks a count from host CPUs and memory
	TempDir   string `toml:"temp_dir"`
	OutputDir string `toml:"output_dir"`
	ShowStats bool   `toml:"show_stats"`
	// BenchmarkLog, when set, receives one line per finished job.
	BenchmarkLog string `toml:"benchmark_log"`
}

// Encoder holds ffmpeg settings.
type Encoder struct {
	FFmpegPath     string `toml:"ffmpeg_path"`
	Codec          string `toml:"codec"`   // auto, libx264, h264_nvenc, h264_videotoolbox
	Quality        int    `toml:"quality"` // 0 picks the codec default
	Preset         string `toml:"preset"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Watermark holds branding overlay settings.
type Watermark struct {
	Enabled bool    `toml:"enabled"`
	Label   string  `toml:"label"`
	Opacity float64 `toml:"opacity"`
	// Stage is frame, encoder or both.
	Stage string `toml:"stage"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Server configures the HTTP render service.
type Server struct {
	Bind string `toml:"bind"`
}

// Config encapsulates all configuration values.
type Config struct {
	Render    Render    `toml:"render"`
	Encoder   Encoder   `toml:"encoder"`
	Watermark Watermark `toml:"watermark"`
	Logging   Logging   `toml:"logging"`
	Server    Server    `toml:"server"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scene2video/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults apply. It also reports the resolved path and whether
// the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("scene2video.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Render.TempDir, err = expandPath(c.Render.TempDir); err != nil {
		return fmt.Errorf("render.temp_dir: %w", err)
	}
	if c.Render.OutputDir, err = expandPath(c.Render.OutputDir); err != nil {
		return fmt.Errorf("render.output_dir: %w", err)
	}
	if c.Render.BenchmarkLog, err = expandPath(c.Render.BenchmarkLog); err != nil {
		return fmt.Errorf("render.benchmark_log: %w", err)
	}
	c.Encoder.Codec = strings.ToLower(strings.TrimSpace(c.Encoder.Codec))
	if c.Encoder.Codec == "" {
		c.Encoder.Codec = defaultCodec
	}
	c.Watermark.Stage = strings.ToLower(strings.TrimSpace(c.Watermark.Stage))
	if c.Watermark.Stage == "" {
		c.Watermark.Stage = StageFrame
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Clean(trimmed), nil
}
