package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWatermark(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return fmt.Errorf("render.width and render.height must be even, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	}
	if c.Render.Workers < 0 {
		return errors.New("render.workers must not be negative")
	}
	if strings.TrimSpace(c.Render.OutputDir) == "" {
		return errors.New("render.output_dir must be set")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if strings.TrimSpace(c.Encoder.FFmpegPath) == "" {
		return errors.New("encoder.ffmpeg_path must be set")
	}
	switch c.Encoder.Codec {
	case "auto", "libx264", "h264_nvenc", "h264_videotoolbox":
	default:
		return fmt.Errorf("encoder.codec %q is not supported", c.Encoder.Codec)
	}
	if c.Encoder.Quality < 0 {
		return errors.New("encoder.quality must not be negative")
	}
	if c.Encoder.TimeoutSeconds <= 0 {
		return errors.New("encoder.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWatermark() error {
	switch c.Watermark.Stage {
	case StageFrame, StageEncoder, StageBoth:
	default:
		return fmt.Errorf("watermark.stage must be frame, encoder or both, got %q", c.Watermark.Stage)
	}
	if c.Watermark.Opacity <= 0 || c.Watermark.Opacity > 1 {
		return fmt.Errorf("watermark.opacity must be in (0, 1], got %g", c.Watermark.Opacity)
	}
	if c.Watermark.Enabled && strings.TrimSpace(c.Watermark.Label) == "" {
		return errors.New("watermark.label must be set when watermark.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "auto", "json", "text", "console":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}
