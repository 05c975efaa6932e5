package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scene2video/internal/scene"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageSourceDirectoryOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 2, color.White)
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2, color.Black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src, err := NewImageSource(dir)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.PageCount())
	first, err := src.RenderPage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Bounds().Dx())

	second, err := src.RenderPage(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Bounds().Dx())

	_, err = src.RenderPage(2, 0)
	assert.Error(t, err)
}

func TestImageSourceEmptyDirectory(t *testing.T) {
	_, err := NewImageSource(t.TempDir())
	assert.Error(t, err)
}

func TestLoaderScreen(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "screen.png"), 8, 6, color.White)

	loader := Loader{BaseDir: dir}

	img, err := loader.Screen(scene.Screen{Name: "Home", Image: "screen.png"})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())

	img, err = loader.Screen(scene.Screen{Name: "Placeholder"})
	require.NoError(t, err)
	assert.Nil(t, img)

	_, err = loader.Screen(scene.Screen{Image: "missing.png"})
	assert.Error(t, err)

	_, err = loader.Screen(scene.Screen{Image: "screen.png", Page: 2})
	assert.Error(t, err)
}

func TestOpenDispatchesPDF(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "deck.PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open pdf")
}

func TestLoaderTrimsMargins(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= 100 && x < 300 && y >= 100 && y < 200 {
				c = color.RGBA{10, 10, 10, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, "slide.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	loader := Loader{BaseDir: dir}

	full, err := loader.Screen(scene.Screen{Image: "slide.png"})
	require.NoError(t, err)
	assert.Equal(t, 400, full.Bounds().Dx())

	trimmed, err := loader.Screen(scene.Screen{Image: "slide.png", Trim: true})
	require.NoError(t, err)
	assert.Less(t, trimmed.Bounds().Dx(), 240)
	assert.Less(t, trimmed.Bounds().Dy(), 140)
	assert.GreaterOrEqual(t, trimmed.Bounds().Dx(), 200)
}

func TestRestrictedLoaderStaysInBaseDir(t *testing.T) {
	root := t.TempDir()
	screens := filepath.Join(root, "screens")
	require.NoError(t, os.MkdirAll(filepath.Join(screens, "app"), 0o755))
	writePNG(t, filepath.Join(screens, "app", "home.png"), 8, 6, color.White)
	writePNG(t, filepath.Join(root, "secret.png"), 8, 6, color.Black)

	loader := Loader{BaseDir: screens, Restrict: true}

	img, err := loader.Screen(scene.Screen{Image: "app/home.png"})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())

	img, err = loader.Screen(scene.Screen{Image: "app/../app/home.png"})
	require.NoError(t, err)
	assert.NotNil(t, img)

	for _, path := range []string{
		filepath.Join(root, "secret.png"),
		"../secret.png",
		"app/../../secret.png",
		"..",
	} {
		img, err := loader.Screen(scene.Screen{Image: path})
		assert.Error(t, err, path)
		assert.Nil(t, img, path)
	}

	_, err = loader.Screen(scene.Screen{PDF: "../deck.pdf"})
	assert.ErrorContains(t, err, "escapes")

	open := Loader{BaseDir: screens}
	img, err = open.Screen(scene.Screen{Image: "../secret.png"})
	require.NoError(t, err)
	assert.NotNil(t, img)
}
