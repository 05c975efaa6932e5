// Package effects holds post-processing applied to finished frames, and the
// equivalent ffmpeg filters for effects that can run inside the encoder.
package effects

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ivlev/scene2video/internal/raster"
	"github.com/ivlev/scene2video/internal/scene"
)

// Effect post-processes a complete frame in place.
type Effect interface {
	Apply(frame *image.RGBA)
}

// Watermark stages, matching the watermark.stage config values.
const (
	StageFrame   = "frame"
	StageEncoder = "encoder"
	StageBoth    = "both"
)

// Watermark is a branding label pinned to the bottom-right corner over a
// translucent pill.
type Watermark struct {
	Label   string
	Opacity float64
	fonts   *raster.Fonts
}

var _ Effect = (*Watermark)(nil)

func NewWatermark(label string, opacity float64, fonts *raster.Fonts) (*Watermark, error) {
	if strings.TrimSpace(label) == "" {
		return nil, errors.New("watermark label is empty")
	}
	if opacity <= 0 || opacity > 1 {
		return nil, fmt.Errorf("watermark opacity must be in (0, 1], got %g", opacity)
	}
	if fonts == nil {
		var err error
		if fonts, err = raster.DefaultFonts(); err != nil {
			return nil, err
		}
	}
	return &Watermark{Label: label, Opacity: opacity, fonts: fonts}, nil
}

type watermarkBox struct {
	size, margin, pad float64
}

func boxFor(width, height int) watermarkBox {
	u := math.Min(float64(width), float64(height)) / raster.BaseHeight
	return watermarkBox{size: 28 * u, margin: 32 * u, pad: 14 * u}
}

// Apply draws the label onto frame. It touches only the bottom-right corner.
func (w *Watermark) Apply(frame *image.RGBA) {
	c := raster.NewCanvas(frame, w.fonts)
	defer c.Close()

	box := boxFor(frame.Bounds().Dx(), frame.Bounds().Dy())
	tw := c.MeasureText(w.Label, box.size, true)
	pw, ph := tw+2*box.pad, box.size+1.6*box.pad
	x, y := c.W-box.margin-pw, c.H-box.margin-ph

	c.FillRoundedRect(x, y, pw, ph, ph/2, black, w.Opacity/2)
	c.Text(w.Label, x+box.pad, y+ph/2, raster.TextStyle{
		Size:    box.size,
		Bold:    true,
		Color:   white,
		Opacity: w.Opacity,
	})
}

// Filter returns an ffmpeg drawtext filter that burns the same label in during
// encoding.
func (w *Watermark) Filter(res scene.Resolution) string {
	box := boxFor(res.Width, res.Height)
	return fmt.Sprintf(
		"drawtext=text='%s':x=w-tw-%d:y=h-th-%d:fontsize=%d:fontcolor=white@%.2f:box=1:boxcolor=black@%.2f:boxborderw=%d",
		escapeDrawtext(w.Label),
		int(math.Round(box.margin+box.pad)),
		int(math.Round(box.margin+box.pad)),
		max(1, int(math.Round(box.size))),
		w.Opacity,
		w.Opacity/2,
		max(1, int(math.Round(box.pad))),
	)
}

// Placement reports where a watermark runs for a stage: on rendered frames,
// in the encoder, or both. An unknown stage falls back to frames.
func Placement(stage string) (onFrames, inEncoder bool) {
	switch stage {
	case StageEncoder:
		return false, true
	case StageBoth:
		return true, true
	default:
		return true, false
	}
}

var drawtextEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, "’",
	`:`, `\:`,
	`%`, `\%`,
	`,`, `\,`,
)

func escapeDrawtext(s string) string {
	return drawtextEscaper.Replace(s)
}
