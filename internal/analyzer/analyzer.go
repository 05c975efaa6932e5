// Package analyzer finds where the content of a rasterized screen sits, so a
// mockup can drop empty page margins before the screen is scaled to fit.
package analyzer

import (
	"image"
	"image/draw"
)

// Region is a connected area of detected content.
type Region struct {
	Rect image.Rectangle
	// Area is the number of edge pixels in the region after dilation.
	Area int
}

// Detector locates content regions in an image.
type Detector interface {
	Detect(img image.Image) ([]Region, error)
}

// EdgeDetector marks pixels with a strong Sobel gradient, grows them into
// blobs and reports each connected blob.
type EdgeDetector struct {
	// Threshold is the gradient magnitude above which a pixel is an edge.
	Threshold float64
	// Radius of the square dilation that merges nearby edges.
	Radius int
	// MinArea drops specks such as scan noise.
	MinArea int
}

var _ Detector = (*EdgeDetector)(nil)

func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{Threshold: 30, Radius: 4, MinArea: 64}
}

func (d *EdgeDetector) Detect(img image.Image) ([]Region, error) {
	gray := toGray(img)
	mask := sobel(gray, d.Threshold)
	if d.Radius > 0 {
		mask = dilate(mask, gray.Rect.Dx(), gray.Rect.Dy(), d.Radius)
	}
	regions := components(mask, gray.Rect.Dx(), gray.Rect.Dy())

	out := regions[:0]
	for _, r := range regions {
		if r.Area >= d.MinArea {
			out = append(out, Region{Rect: r.Rect.Add(gray.Rect.Min), Area: r.Area})
		}
	}
	return out, nil
}

// ContentBounds is the union of all regions d finds, grown by pad and clipped
// to the image. It reports false when nothing was found.
func ContentBounds(d Detector, img image.Image, pad int) (image.Rectangle, bool) {
	regions, err := d.Detect(img)
	if err != nil || len(regions) == 0 {
		return image.Rectangle{}, false
	}
	bounds := regions[0].Rect
	for _, r := range regions[1:] {
		bounds = bounds.Union(r.Rect)
	}
	return bounds.Inset(-pad).Intersect(img.Bounds()), true
}

// Trim crops img to its content plus pad pixels. Images with no detectable
// content are returned unchanged.
func Trim(d Detector, img image.Image, pad int) image.Image {
	bounds, ok := ContentBounds(d, img, pad)
	if !ok || bounds == img.Bounds() {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Rect, img, bounds.Min, draw.Src)
	return out
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// sobel returns a w*h mask of edge pixels. The one pixel border is never an
// edge.
func sobel(g *image.Gray, threshold float64) []bool {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	mask := make([]bool, w*h)
	px := func(x, y int) float64 { return float64(g.Pix[y*g.Stride+x]) }
	limit := threshold * threshold

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			mask[y*w+x] = gx*gx+gy*gy > limit
		}
	}
	return mask
}

// dilate grows the mask by a square of the given radius, one axis at a time.
func dilate(mask []bool, w, h, radius int) []bool {
	rows := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		last := -radius - 1
		for x := 0; x < w; x++ {
			if mask[y*w+x] {
				last = x
			}
			if x-last <= radius {
				rows[y*w+x] = true
			}
		}
		last = w + radius
		for x := w - 1; x >= 0; x-- {
			if mask[y*w+x] {
				last = x
			}
			if last-x <= radius {
				rows[y*w+x] = true
			}
		}
	}

	out := make([]bool, len(mask))
	for x := 0; x < w; x++ {
		last := -radius - 1
		for y := 0; y < h; y++ {
			if rows[y*w+x] {
				last = y
			}
			if y-last <= radius {
				out[y*w+x] = true
			}
		}
		last = h + radius
		for y := h - 1; y >= 0; y-- {
			if rows[y*w+x] {
				last = y
			}
			if last-y <= radius {
				out[y*w+x] = true
			}
		}
	}
	return out
}

// components labels 4-connected runs of set pixels with an explicit stack.
func components(mask []bool, w, h int) []Region {
	seen := make([]bool, len(mask))
	var regions []Region
	var stack []int

	for start, set := range mask {
		if !set || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		x0, y0 := start%w, start/w
		r := image.Rect(x0, y0, x0+1, y0+1)
		area := 0

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			area++
			r = r.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				switch {
				case n < 0 || n >= len(mask):
					continue
				case (n == i-1 && x == 0) || (n == i+1 && x == w-1):
					continue
				}
				if mask[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		regions = append(regions, Region{Rect: r, Area: area})
	}
	return regions
}
