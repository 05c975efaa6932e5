package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ivlev/scene2video/internal/analyzer"
	"github.com/ivlev/scene2video/internal/scene"
)

// DefaultDPI rasterizes PDF pages sharply enough for a 1080p mockup.
const DefaultDPI = 150

// Loader resolves demo screen references to images.
type Loader struct {
	// BaseDir anchors relative paths, usually the script's directory.
	BaseDir string
	DPI     int
	// Restrict confines screen files to BaseDir: absolute paths and paths
	// escaping it are rejected.
	Restrict bool
}

// Screen loads the image a screen points at. It returns nil, nil when the
// screen has neither an image nor a pdf, in which case a placeholder is drawn.
func (l Loader) Screen(s scene.Screen) (image.Image, error) {
	path := s.PDF
	if path == "" {
		path = s.Image
	}
	if path == "" {
		return nil, nil
	}
	path, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	page := s.Page
	if page < 1 {
		page = 1
	}
	dpi := l.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	img, err := src.RenderPage(page-1, dpi)
	if err != nil || !s.Trim {
		return img, err
	}
	b := img.Bounds()
	return analyzer.Trim(analyzer.NewEdgeDetector(), img, max(b.Dx(), b.Dy())/100), nil
}

func (l Loader) resolve(path string) (string, error) {
	if !l.Restrict {
		if !filepath.IsAbs(path) && l.BaseDir != "" {
			path = filepath.Join(l.BaseDir, path)
		}
		return path, nil
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("screen path %q must be relative to the screens directory", path)
	}
	base, err := filepath.Abs(l.BaseDir)
	if err != nil {
		return "", err
	}
	joined := filepath.Join(base, path)
	rel, err := filepath.Rel(base, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("screen path %q escapes the screens directory", path)
	}
	return joined, nil
}
