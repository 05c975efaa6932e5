// Package raster draws the primitives scene layouts are built from: vertical
// gradients, anti-aliased shapes, text in the embedded Go fonts, and affine
// composites of offscreen layers.
package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/scene2video/internal/animation"
)

// BaseHeight is the frame height layouts are designed against.
const BaseHeight = 1080.0

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle configures Canvas.Text.
type TextStyle struct {
	Size    float64
	Bold    bool
	Color   color.NRGBA
	Opacity float64
	Align   Align
	// MaxWidth shrinks the text to fit when positive.
	MaxWidth float64
}

// Pt is a point in canvas pixels.
type Pt struct{ X, Y float64 }

type faceKey struct {
	bold bool
	size float64
}

// Canvas draws onto an RGBA image. It caches font faces and is not safe for
// concurrent use: give each frame its own Canvas.
type Canvas struct {
	Img  *image.RGBA
	W, H float64
	// Unit converts 1080p design pixels to this canvas.
	Unit float64

	fonts *Fonts
	faces map[faceKey]font.Face
}

func NewCanvas(img *image.RGBA, fonts *Fonts) *Canvas {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	return &Canvas{
		Img:   img,
		W:     w,
		H:     h,
		Unit:  math.Min(w, h) / BaseHeight,
		fonts: fonts,
		faces: make(map[faceKey]font.Face),
	}
}

// Layer wraps an offscreen image that shares this canvas' unit and faces.
func (c *Canvas) Layer(img *image.RGBA) *Canvas {
	b := img.Bounds()
	return &Canvas{
		Img:   img,
		W:     float64(b.Dx()),
		H:     float64(b.Dy()),
		Unit:  c.Unit,
		fonts: c.fonts,
		faces: c.faces,
	}
}

// Close releases cached faces.
func (c *Canvas) Close() {
	for k, f := range c.faces {
		f.Close()
		delete(c.faces, k)
	}
}

// Clear makes every pixel transparent.
func (c *Canvas) Clear() {
	clear(c.Img.Pix)
}

// VerticalGradient overwrites every pixel with a top-to-bottom blend.
func (c *Canvas) VerticalGradient(top, bottom color.NRGBA) {
	b := c.Img.Bounds()
	rows := b.Dy()
	for y := 0; y < rows; y++ {
		t := 0.0
		if rows > 1 {
			t = float64(y) / float64(rows-1)
		}
		px := color.RGBAModel.Convert(animation.LerpColor(top, bottom, t)).(color.RGBA)
		start := c.Img.PixOffset(b.Min.X, b.Min.Y+y)
		row := c.Img.Pix[start : start+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			row[x] = px.R
			row[x+1] = px.G
			row[x+2] = px.B
			row[x+3] = px.A
		}
	}
}

// source returns a uniform for col at opacity, or false when nothing would be
// visible.
func (c *Canvas) source(col color.NRGBA, opacity float64) (*image.Uniform, bool) {
	a := uint8(math.Round(float64(col.A) * float64(animation.Alpha(opacity)) / 255))
	if a == 0 {
		return nil, false
	}
	col.A = a
	return image.NewUniform(col), true
}

func (c *Canvas) FillRect(x, y, w, h float64, col color.NRGBA, opacity float64) {
	src, ok := c.source(col, opacity)
	if !ok {
		return
	}
	r := image.Rect(round(x), round(y), round(x+w), round(y+h))
	draw.Draw(c.Img, r, src, image.Point{}, draw.Over)
}

func (c *Canvas) FillRoundedRect(x, y, w, h, radius float64, col color.NRGBA, opacity float64) {
	if w <= 0 || h <= 0 {
		return
	}
	radius = math.Max(0, math.Min(radius, math.Min(w, h)/2))
	c.fillPath(x, y, x+w, y+h, col, opacity, func(z *vector.Rasterizer, ox, oy float64) {
		x0, y0 := float32(x-ox), float32(y-oy)
		x1, y1 := float32(x+w-ox), float32(y+h-oy)
		r := float32(radius)
		z.MoveTo(x0+r, y0)
		z.LineTo(x1-r, y0)
		z.QuadTo(x1, y0, x1, y0+r)
		z.LineTo(x1, y1-r)
		z.QuadTo(x1, y1, x1-r, y1)
		z.LineTo(x0+r, y1)
		z.QuadTo(x0, y1, x0, y1-r)
		z.LineTo(x0, y0+r)
		z.QuadTo(x0, y0, x0+r, y0)
		z.ClosePath()
	})
}

func (c *Canvas) FillCircle(cx, cy, r float64, col color.NRGBA, opacity float64) {
	if r <= 0 {
		return
	}
	const k = 0.5522847498 // cubic Bézier circle constant
	c.fillPath(cx-r, cy-r, cx+r, cy+r, col, opacity, func(z *vector.Rasterizer, ox, oy float64) {
		x, y := cx-ox, cy-oy
		f := func(v float64) float32 { return float32(v) }
		z.MoveTo(f(x+r), f(y))
		z.CubeTo(f(x+r), f(y+k*r), f(x+k*r), f(y+r), f(x), f(y+r))
		z.CubeTo(f(x-k*r), f(y+r), f(x-r), f(y+k*r), f(x-r), f(y))
		z.CubeTo(f(x-r), f(y-k*r), f(x-k*r), f(y-r), f(x), f(y-r))
		z.CubeTo(f(x+k*r), f(y-r), f(x+r), f(y-k*r), f(x+r), f(y))
		z.ClosePath()
	})
}

func (c *Canvas) FillPolygon(pts []Pt, col color.NRGBA, opacity float64) {
	if len(pts) < 3 {
		return
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	c.fillPath(minX, minY, maxX, maxY, col, opacity, func(z *vector.Rasterizer, ox, oy float64) {
		z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
		for _, p := range pts[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	})
}

// StrokeLine draws a segment of the given width with square ends.
func (c *Canvas) StrokeLine(a, b Pt, width float64, col color.NRGBA, opacity float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.FillPolygon([]Pt{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}, col, opacity)
}

// fillPath rasterizes a path built in bbox-local coordinates into a mask and
// composites col through it. DrawMask clips to the image, so shapes may lie
// partly or wholly off-canvas.
func (c *Canvas) fillPath(minX, minY, maxX, maxY float64, col color.NRGBA, opacity float64, path func(z *vector.Rasterizer, ox, oy float64)) {
	src, ok := c.source(col, opacity)
	if !ok {
		return
	}
	bbox := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	if bbox.Empty() || !bbox.Overlaps(c.Img.Bounds()) {
		return
	}
	z := vector.NewRasterizer(bbox.Dx(), bbox.Dy())
	path(z, float64(bbox.Min.X), float64(bbox.Min.Y))
	mask := image.NewAlpha(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(c.Img, bbox, src, image.Point{}, mask, image.Point{}, draw.Over)
}

// Text draws s with its vertical center at y and returns the drawn width.
func (c *Canvas) Text(s string, x, y float64, st TextStyle) float64 {
	if s == "" || st.Size <= 0 {
		return 0
	}
	size := st.Size
	face := c.face(st.Bold, size)
	width := measure(face, s)
	if st.MaxWidth > 0 && width > st.MaxWidth {
		size *= st.MaxWidth / width
		face = c.face(st.Bold, size)
		width = measure(face, s)
	}

	src, ok := c.source(st.Color, st.Opacity)
	if !ok {
		return width
	}
	switch st.Align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	d := font.Drawer{
		Dst:  c.Img,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(y + size*0.35)},
	}
	d.DrawString(s)
	return width
}

// MeasureText returns the advance width of s.
func (c *Canvas) MeasureText(s string, size float64, bold bool) float64 {
	if s == "" || size <= 0 {
		return 0
	}
	return measure(c.face(bold, size), s)
}

func (c *Canvas) face(bold bool, size float64) font.Face {
	key := faceKey{bold: bold, size: math.Round(size*2) / 2}
	if f, ok := c.faces[key]; ok {
		return f
	}
	fnt := c.fonts.Regular
	if bold {
		fnt = c.fonts.Bold
	}
	f, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    math.Max(key.size, 1),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[key] = f
	return f
}

// DrawImage composites src with its top-left corner at (x, y).
func (c *Canvas) DrawImage(src image.Image, x, y, opacity float64) {
	a := animation.Alpha(opacity)
	if a == 0 {
		return
	}
	sb := src.Bounds()
	dr := sb.Sub(sb.Min).Add(image.Pt(round(x), round(y)))
	if a == 255 {
		draw.Draw(c.Img, dr, src, sb.Min, draw.Over)
		return
	}
	draw.DrawMask(c.Img, dr, src, sb.Min, image.NewUniform(color.Alpha{A: a}), image.Point{}, draw.Over)
}

// CompositeScaled draws layer, which must match the canvas size, scaled by s
// about (cx, cy).
func (c *Canvas) CompositeScaled(layer *image.RGBA, s, cx, cy float64) {
	m := f64.Aff3{
		s, 0, cx * (1 - s),
		0, s, cy * (1 - s),
	}
	draw.ApproxBiLinear.Transform(c.Img, m, layer, layer.Bounds(), draw.Over, nil)
}

// CompositeRotated draws layer rotated by theta radians with its center placed
// at (cx, cy).
func (c *Canvas) CompositeRotated(layer *image.RGBA, theta, cx, cy float64) {
	b := layer.Bounds()
	lcx, lcy := float64(b.Min.X)+float64(b.Dx())/2, float64(b.Min.Y)+float64(b.Dy())/2
	sin, cos := math.Sincos(theta)
	m := f64.Aff3{
		cos, -sin, cx - cos*lcx + sin*lcy,
		sin, cos, cy - sin*lcx - cos*lcy,
	}
	draw.ApproxBiLinear.Transform(c.Img, m, layer, b, draw.Over, nil)
}

// Fit scales src to fit inside w x h, preserving aspect ratio, centered on a
// transparent background.
func Fit(src image.Image, w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}
	scale := math.Min(float64(w)/float64(sb.Dx()), float64(h)/float64(sb.Dy()))
	dw := int(math.Round(float64(sb.Dx()) * scale))
	dh := int(math.Round(float64(sb.Dy()) * scale))
	ox, oy := (w-dw)/2, (h-dh)/2
	draw.CatmullRom.Scale(dst, image.Rect(ox, oy, ox+dw, oy+dh), src, sb, draw.Src, nil)
	return dst
}

func measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func round(v float64) int {
	return int(math.Round(v))
}
