package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// page returns a white page with dark blocks, like a slide with margins.
func page(w, h int, blocks ...image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, b := range blocks {
		draw.Draw(img, b, image.NewUniform(color.RGBA{20, 30, 40, 255}), image.Point{}, draw.Src)
	}
	return img
}

func TestDetectFindsSeparateBlocks(t *testing.T) {
	img := page(300, 200, image.Rect(30, 30, 90, 80), image.Rect(180, 120, 260, 170))

	regions, err := NewEdgeDetector().Detect(img)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	for i, want := range []image.Rectangle{image.Rect(30, 30, 90, 80), image.Rect(180, 120, 260, 170)} {
		got := regions[i].Rect
		assert.True(t, got.Inset(-1).Overlaps(want), "region %d %v vs %v", i, got, want)
		assert.True(t, want.In(got.Inset(-2)), "region %d %v should cover %v", i, got, want)
		assert.Greater(t, regions[i].Area, 0)
	}
}

func TestDetectDropsSpecks(t *testing.T) {
	img := page(100, 100, image.Rect(50, 50, 51, 51))
	d := NewEdgeDetector()
	d.MinArea = 500

	regions, err := d.Detect(img)
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestDetectBlankImage(t *testing.T) {
	regions, err := NewEdgeDetector().Detect(page(64, 64))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestContentBounds(t *testing.T) {
	img := page(400, 300, image.Rect(100, 80, 150, 120), image.Rect(200, 150, 300, 220))

	bounds, ok := ContentBounds(NewEdgeDetector(), img, 10)
	require.True(t, ok)
	assert.True(t, image.Rect(90, 70, 310, 230).In(bounds.Inset(-6)), "got %v", bounds)
	assert.True(t, bounds.In(image.Rect(80, 60, 320, 240)), "got %v", bounds)

	_, ok = ContentBounds(NewEdgeDetector(), page(50, 50), 4)
	assert.False(t, ok)
}

func TestContentBoundsClipsPadding(t *testing.T) {
	img := page(100, 100, image.Rect(5, 5, 95, 95))
	bounds, ok := ContentBounds(NewEdgeDetector(), img, 50)
	require.True(t, ok)
	assert.Equal(t, img.Bounds(), bounds)
}

func TestTrim(t *testing.T) {
	img := page(400, 300, image.Rect(100, 100, 200, 150))

	out := Trim(NewEdgeDetector(), img, 0)
	b := out.Bounds()
	assert.Equal(t, image.Point{}, b.Min)
	assert.InDelta(t, 100, b.Dx(), 12)
	assert.InDelta(t, 50, b.Dy(), 12)

	// the block's dark fill sits in the middle of the crop
	r, _, _, _ := out.At(b.Dx()/2, b.Dy()/2).RGBA()
	assert.Less(t, r>>8, uint32(64))

	blank := page(40, 40)
	assert.Same(t, blank, Trim(NewEdgeDetector(), blank, 2))
}

func TestTrimOffsetImage(t *testing.T) {
	img := page(200, 200, image.Rect(120, 120, 160, 160)).SubImage(image.Rect(100, 100, 200, 200))
	bounds, ok := ContentBounds(NewEdgeDetector(), img, 0)
	require.True(t, ok)
	assert.True(t, bounds.In(img.Bounds()))
	assert.True(t, image.Rect(120, 120, 160, 160).In(bounds.Inset(-6)), "got %v", bounds)
}
