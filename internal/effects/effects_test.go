package effects

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scene2video/internal/scene"
)

func grey(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
		if i%4 == 3 {
			img.Pix[i] = 0xff
		}
	}
	return img
}

func TestNewWatermarkValidates(t *testing.T) {
	_, err := NewWatermark(" ", 0.7, nil)
	assert.Error(t, err)
	_, err = NewWatermark("brand", 0, nil)
	assert.Error(t, err)
	_, err = NewWatermark("brand", 1.2, nil)
	assert.Error(t, err)

	w, err := NewWatermark("brand", 0.7, nil)
	require.NoError(t, err)
	assert.Equal(t, "brand", w.Label)
}

func TestApplyTouchesOnlyBottomRight(t *testing.T) {
	w, err := NewWatermark("scene2video", 0.7, nil)
	require.NoError(t, err)

	frame := grey(640, 360)
	before := bytes.Clone(frame.Pix)
	w.Apply(frame)
	assert.NotEqual(t, before, frame.Pix)

	// top half and left half are untouched
	for y := 0; y < 180; y++ {
		for x := 0; x < 640; x++ {
			require.Equal(t, before[frame.PixOffset(x, y)], frame.Pix[frame.PixOffset(x, y)], "pixel %d,%d", x, y)
		}
	}
	for y := 180; y < 360; y++ {
		for x := 0; x < 320; x++ {
			require.Equal(t, before[frame.PixOffset(x, y)], frame.Pix[frame.PixOffset(x, y)], "pixel %d,%d", x, y)
		}
	}
}

func TestApplyDeterministic(t *testing.T) {
	w, err := NewWatermark("brand", 0.7, nil)
	require.NoError(t, err)

	a, b := grey(320, 180), grey(320, 180)
	w.Apply(a)
	w.Apply(b)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestFilter(t *testing.T) {
	w, err := NewWatermark("Acme: 100% it's", 0.7, nil)
	require.NoError(t, err)

	f := w.Filter(scene.Resolution{Width: 1920, Height: 1080})
	assert.Equal(t,
		`drawtext=text='Acme\: 100\% it’s':x=w-tw-46:y=h-th-46:fontsize=28:fontcolor=white@0.70:box=1:boxcolor=black@0.35:boxborderw=14`,
		f)
}

func TestPlacement(t *testing.T) {
	tests := []struct {
		stage           string
		frames, encoder bool
	}{
		{StageFrame, true, false},
		{StageEncoder, false, true},
		{StageBoth, true, true},
		{"", true, false},
	}
	for _, tt := range tests {
		frames, encoder := Placement(tt.stage)
		assert.Equal(t, tt.frames, frames, tt.stage)
		assert.Equal(t, tt.encoder, encoder, tt.stage)
	}
}
