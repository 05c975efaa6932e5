package renderer

import (
	"image"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/ivlev/scene2video/internal/animation"
	"github.com/ivlev/scene2video/internal/raster"
	"github.com/ivlev/scene2video/internal/scene"
)

var (
	defaultPanels = []string{"Overview", "Analytics", "Reports", "Settings"}
	defaultValues = []float64{42, 68, 55, 91, 63, 80, 74}
)

func drawDashboard(c *raster.Canvas, th theme, p float64, v scene.DashboardContent) {
	a := animation.FadeIn(p)
	u := c.Unit

	panels := v.Panels
	if len(panels) == 0 {
		panels = defaultPanels
	}
	values := v.Values
	if len(values) == 0 {
		values = defaultValues
	}

	// sidebar
	sideW := c.W * 0.16
	c.FillRect(0, 0, sideW, c.H, th.card, a)
	for i, name := range panels {
		y := c.H*0.16 + float64(i)*64*u
		col := th.muted
		if i == 0 {
			c.FillRoundedRect(16*u, y-24*u, sideW-32*u, 48*u, 10*u, th.accent, a)
			col = th.text
		}
		c.Text(name, 36*u, y, raster.TextStyle{Size: 26 * u, Color: col, Opacity: a, MaxWidth: sideW - 56*u})
	}

	// header
	x0 := sideW + 40*u
	cw := c.W - x0 - 40*u
	c.FillRect(sideW, 0, c.W-sideW, c.H*0.1, th.cardEdge, a*0.6)
	c.Text(v.Title, x0, c.H*0.05, raster.TextStyle{
		Size: 40 * u, Bold: true, Color: th.text, Opacity: a, MaxWidth: cw * 0.7,
	})
	c.FillCircle(c.W-72*u, c.H*0.05, 22*u, th.accent2, a)

	// summary cards
	nc := min(3, len(values))
	gap := 24 * u
	cardW := (cw - gap*float64(nc-1)) / float64(nc)
	cardY, cardH := c.H*0.15, c.H*0.18
	for i := 0; i < nc; i++ {
		x := x0 + (cardW+gap)*float64(i)
		c.FillRoundedRect(x, cardY, cardW, cardH, 16*u, th.card, a)
		c.Text(panels[i%len(panels)], x+24*u, cardY+cardH*0.3, raster.TextStyle{
			Size: 24 * u, Color: th.muted, Opacity: a, MaxWidth: cardW - 48*u,
		})
		c.Text(humanize.Commaf(values[i]), x+24*u, cardY+cardH*0.66, raster.TextStyle{
			Size: 52 * u, Bold: true, Color: th.text, Opacity: a, MaxWidth: cardW - 48*u,
		})
	}

	// bar chart
	chartTop, chartBottom := c.H*0.39, c.H*0.92
	c.FillRoundedRect(x0, chartTop, cw, chartBottom-chartTop, 16*u, th.card, a)

	maxV := 0.0
	for _, val := range values {
		maxV = math.Max(maxV, val)
	}
	if maxV <= 0 {
		maxV = 1
	}
	n := len(values)
	slot := (cw - 48*u) / float64(n)
	barW := slot * 0.6
	baseY := chartBottom - 32*u
	maxH := chartBottom - chartTop - 64*u
	for i, val := range values {
		h := val / maxV * maxH
		x := x0 + 24*u + slot*float64(i) + (slot-barW)/2
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		c.FillRoundedRect(x, baseY-h, barW, h, math.Min(8*u, barW/2), animation.LerpColor(th.accent, th.accent2, t), a)
	}
}

func (s *Scene) drawCallToAction(c *raster.Canvas, th theme, p float64, v scene.CallToActionContent) {
	u := c.Unit

	layerImg := s.r.pool.Get(c.Img.Bounds())
	defer s.r.pool.Put(layerImg)
	l := c.Layer(layerImg)
	l.Clear()

	l.Text(v.Title, c.W/2, c.H*0.36, raster.TextStyle{
		Size: 84 * u, Bold: true, Color: th.text, Opacity: 1,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.8,
	})
	l.Text(v.Subtitle, c.W/2, c.H*0.48, raster.TextStyle{
		Size: 40 * u, Color: th.muted, Opacity: 1,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.8,
	})
	if v.Button != "" {
		bw := math.Min(l.MeasureText(v.Button, 40*u, true), c.W*0.6) + 96*u
		bh := 96 * u
		l.FillRoundedRect(c.W/2-bw/2, c.H*0.64-bh/2, bw, bh, bh/2, th.accent, 1)
		l.Text(v.Button, c.W/2, c.H*0.64, raster.TextStyle{
			Size: 40 * u, Bold: true, Color: th.text, Opacity: 1,
			Align: raster.AlignCenter, MaxWidth: c.W * 0.6,
		})
	}

	c.CompositeScaled(layerImg, animation.Pulse(p), c.W/2, c.H/2)

	// The code stays still so it can be scanned.
	if s.qr != nil {
		margin := 48 * u
		c.DrawImage(s.qr, margin, c.H-margin-float64(s.qr.Bounds().Dy()), animation.FadeIn(p))
	}
}

func (s *Scene) drawDemoScreens(c *raster.Canvas, th theme, p float64, v scene.DemoScreensContent) {
	drawHeading(c, th, v.Title, animation.FadeIn(p))

	u := c.Unit
	n := len(v.Screens)
	active, _, wobble := animation.Cycle(p, n)
	device, screen := deviceLayout(s.res)

	if !device.Empty() {
		layerImg := s.r.pool.Get(device)
		l := c.Layer(layerImg)
		l.Clear()

		l.FillRoundedRect(0, 0, l.W, l.H, 24*u, th.cardEdge, 1)
		for k := 0; k < 3; k++ {
			l.FillCircle(float64(screen.Min.X)+12*u+float64(k)*22*u, float64(screen.Min.Y)/2+8*u, 7*u, th.muted, 1)
		}
		if img := s.screens[active]; img != nil && !screen.Empty() {
			l.FillRect(float64(screen.Min.X), float64(screen.Min.Y), float64(screen.Dx()), float64(screen.Dy()), th.top, 1)
			l.DrawImage(img, float64(screen.Min.X), float64(screen.Min.Y), 1)
		} else {
			drawPlaceholder(l, th, screen, active)
		}

		c.CompositeRotated(layerImg, wobble, c.W/2, c.H*0.55)
		s.r.pool.Put(layerImg)
	}

	c.Text(v.Screens[active].Name, c.W/2, c.H*0.9, raster.TextStyle{
		Size: 36 * u, Bold: true, Color: th.text, Opacity: 1,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.8,
	})
	for i := 0; i < n; i++ {
		col := th.muted
		if i == active {
			col = th.accent
		}
		c.FillCircle(c.W/2+(float64(i)-float64(n-1)/2)*24*u, c.H*0.95, 6*u, col, 1)
	}
}

// drawPlaceholder sketches an app screen; the layout varies with index so
// consecutive screens are distinguishable.
func drawPlaceholder(l *raster.Canvas, th theme, r image.Rectangle, index int) {
	if r.Empty() {
		return
	}
	u := l.Unit
	x, y := float64(r.Min.X), float64(r.Min.Y)
	w, h := float64(r.Dx()), float64(r.Dy())

	l.FillRect(x, y, w, h, th.top, 1)
	l.FillRect(x, y, w, h*0.12, th.accent, 0.85)

	cols := 2 + index%2
	gap := w * 0.03
	bw := (w - gap*float64(cols+1)) / float64(cols)
	for k := 0; k < cols; k++ {
		l.FillRoundedRect(x+gap+float64(k)*(bw+gap), y+h*0.18, bw, h*0.3, 8*u, th.cardEdge, 1)
	}
	for k := 0; k < 4; k++ {
		lw := w * (0.8 - 0.12*float64((k+index)%3))
		l.FillRoundedRect(x+gap, y+h*(0.56+0.1*float64(k)), lw, h*0.04, h*0.02, th.muted, 0.5)
	}
}
