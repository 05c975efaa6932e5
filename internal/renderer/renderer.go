// Package renderer turns one scene descriptor and a frame index into a raster
// frame. Every layout is a pure function of the decoded payload, the target
// resolution and the scene progress, so identical inputs give identical
// pixels.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/scene2video/internal/animation"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/raster"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/system"
)

// ScreenLoader resolves demo screen references to images. It returns nil when
// the screen has no image of its own.
type ScreenLoader interface {
	Screen(s scene.Screen) (image.Image, error)
}

// Options configures a Renderer. Zero values pick defaults.
type Options struct {
	Fonts   *raster.Fonts
	Screens ScreenLoader
	Pool    *system.FramePool
}

// Renderer prepares scenes for rendering.
type Renderer struct {
	fonts   *raster.Fonts
	screens ScreenLoader
	pool    *system.FramePool
}

func New(opts Options) (*Renderer, error) {
	fonts := opts.Fonts
	if fonts == nil {
		var err error
		if fonts, err = raster.DefaultFonts(); err != nil {
			return nil, err
		}
	}
	pool := opts.Pool
	if pool == nil {
		pool = system.NewFramePool()
	}
	return &Renderer{fonts: fonts, screens: opts.Screens, pool: pool}, nil
}

// Scene is a descriptor ready for the frame loop: its payload decoded and its
// assets loaded. Frame is safe for concurrent use.
type Scene struct {
	r       *Renderer
	index   int
	payload scene.Payload
	res     scene.Resolution

	qr      image.Image
	screens []*image.RGBA
}

// Prepare decodes d and loads everything its frames share. index is the
// scene's position in the job and is reported in errors.
func (r *Renderer) Prepare(index int, d scene.Descriptor, res scene.Resolution) (*Scene, error) {
	const op = "renderer.prepare"

	if res.Width <= 0 || res.Height <= 0 {
		return nil, errs.Render(fmt.Errorf("invalid resolution %s", res), op, index, 0)
	}
	payload, err := scene.DecodeContent(d)
	if err != nil {
		return nil, errs.Render(err, op, index, 0)
	}

	s := &Scene{r: r, index: index, payload: payload, res: res}

	switch p := payload.(type) {
	case scene.CallToActionContent:
		if p.URL != "" {
			code, err := qrcode.New(p.URL, qrcode.Medium)
			if err != nil {
				return nil, errs.Render(fmt.Errorf("qr code for %q: %w", p.URL, err), op, index, 0)
			}
			s.qr = code.Image(qrSize(res))
		}
	case scene.DemoScreensContent:
		_, screen := deviceLayout(res)
		s.screens = make([]*image.RGBA, len(p.Screens))
		for i, ref := range p.Screens {
			if ref.Image == "" && ref.PDF == "" {
				continue
			}
			if r.screens == nil {
				return nil, errs.Render(errors.New("screen images need a screen loader"), op, index, 0)
			}
			img, err := r.screens.Screen(ref)
			if err != nil {
				return nil, errs.Render(fmt.Errorf("screens[%d]: %w", i, err), op, index, 0)
			}
			if img != nil {
				s.screens[i] = raster.Fit(img, screen.Dx(), screen.Dy())
			}
		}
	}
	return s, nil
}

// Kind reports the prepared scene's kind.
func (s *Scene) Kind() scene.Kind {
	return s.payload.Kind()
}

// Frame draws frame frameIndex of totalFrames into dst, which must match the
// scene resolution. Every pixel of dst is overwritten.
func (s *Scene) Frame(dst *image.RGBA, frameIndex, totalFrames int) error {
	const op = "renderer.frame"

	if b := dst.Bounds(); b.Dx() != s.res.Width || b.Dy() != s.res.Height {
		return errs.Render(fmt.Errorf("frame buffer is %dx%d, want %s", b.Dx(), b.Dy(), s.res), op, s.index, frameIndex)
	}
	if frameIndex < 0 || (totalFrames > 0 && frameIndex >= totalFrames) {
		return errs.Render(fmt.Errorf("frame index outside [0, %d)", totalFrames), op, s.index, frameIndex)
	}

	p := animation.Progress(frameIndex, totalFrames)
	c := raster.NewCanvas(dst, s.r.fonts)
	defer c.Close()

	th := themeFor(s.payload.Kind())
	c.VerticalGradient(th.top, th.bottom)

	switch v := s.payload.(type) {
	case scene.TitleContent:
		drawTitle(c, th, p, v)
	case scene.FeatureListContent:
		drawFeatureList(c, th, p, v)
	case scene.DashboardContent:
		drawDashboard(c, th, p, v)
	case scene.StatisticsContent:
		drawStatistics(c, th, p, v)
	case scene.CallToActionContent:
		s.drawCallToAction(c, th, p, v)
	case scene.VersionTitleContent:
		drawVersionTitle(c, th, p, v)
	case scene.NewFeaturesContent:
		drawNewFeatures(c, th, p, v)
	case scene.ImprovementsContent:
		drawImprovements(c, th, p, v)
	case scene.DemoScreensContent:
		s.drawDemoScreens(c, th, p, v)
	default:
		return errs.Render(fmt.Errorf("no layout for scene kind %q", s.payload.Kind()), op, s.index, frameIndex)
	}
	return nil
}

// Render draws a single frame of d into a new image.
func (r *Renderer) Render(d scene.Descriptor, res scene.Resolution, frameIndex, totalFrames int) (*image.RGBA, error) {
	s, err := r.Prepare(0, d, res)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	if err := s.Frame(img, frameIndex, totalFrames); err != nil {
		return nil, err
	}
	return img, nil
}

func unit(res scene.Resolution) float64 {
	return math.Min(float64(res.Width), float64(res.Height)) / raster.BaseHeight
}

func qrSize(res scene.Resolution) int {
	return int(math.Max(64, math.Round(180*unit(res))))
}

// deviceLayout returns the demo device frame size and the screen area inside
// it, both relative to the device's top-left corner.
func deviceLayout(res scene.Resolution) (device, screen image.Rectangle) {
	u := unit(res)
	dw := int(float64(res.Width) * 0.56)
	dh := int(float64(res.Height) * 0.6)
	border := int(math.Round(16 * u))
	bar := int(math.Round(40 * u))

	device = image.Rect(0, 0, dw, dh)
	screen = image.Rect(border, border+bar, dw-border, dh-border)
	if screen.Empty() {
		screen = image.Rectangle{}
	}
	return device, screen
}
