package renderer

import (
	"math"
	"strings"

	"github.com/ivlev/scene2video/internal/animation"
	"github.com/ivlev/scene2video/internal/raster"
	"github.com/ivlev/scene2video/internal/scene"
)

func drawHeading(c *raster.Canvas, th theme, text string, alpha float64) {
	c.Text(text, c.W/2, c.H*0.14, raster.TextStyle{
		Size:     64 * c.Unit,
		Bold:     true,
		Color:    th.text,
		Opacity:  alpha,
		Align:    raster.AlignCenter,
		MaxWidth: c.W * 0.85,
	})
}

func drawTitle(c *raster.Canvas, th theme, p float64, v scene.TitleContent) {
	a := animation.FadeIn(p)
	u := c.Unit
	cx := c.W / 2

	c.Text(v.Title, cx, c.H*0.44, raster.TextStyle{
		Size: 96 * u, Bold: true, Color: th.text, Opacity: a,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.85,
	})
	c.FillRoundedRect(cx-60*u, c.H*0.53, 120*u, 6*u, 3*u, th.accent, a)
	c.Text(v.Subtitle, cx, c.H*0.62, raster.TextStyle{
		Size: 44 * u, Color: th.muted, Opacity: a,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.8,
	})
}

func drawFeatureList(c *raster.Canvas, th theme, p float64, v scene.FeatureListContent) {
	drawHeading(c, th, v.Title, animation.FadeIn(p))

	u := c.Unit
	n := len(v.Features)
	top := c.H * 0.28
	step := math.Min(c.H*0.62/float64(n), 110*u)
	x := c.W * 0.2
	size := math.Min(44*u, step*0.5)

	for i, feature := range v.Features {
		a := animation.Stagger(p, i, n)
		y := top + step*(float64(i)+0.5)
		c.FillCircle(x, y, size*0.28, th.accent, a)
		c.Text(feature, x+40*u, y, raster.TextStyle{
			Size: size, Color: th.text, Opacity: a, MaxWidth: c.W * 0.7,
		})
	}
}

func drawStatistics(c *raster.Canvas, th theme, p float64, v scene.StatisticsContent) {
	drawHeading(c, th, v.Title, animation.FadeIn(p))

	u := c.Unit
	n := len(v.Stats)
	cols := min(n, 4)
	rows := (n + cols - 1) / cols
	gap := 32 * u
	areaX, areaW := c.W*0.08, c.W*0.84
	areaTop, areaH := c.H*0.28, c.H*0.62

	tileW := (areaW - gap*float64(cols-1)) / float64(cols)
	tileH := math.Min((areaH-gap*float64(rows-1))/float64(rows), 300*u)

	for i, st := range v.Stats {
		a := animation.Stagger(p, i, n)
		col, row := i%cols, i/cols
		inRow := min(cols, n-row*cols)
		offset := float64(cols-inRow) * (tileW + gap) / 2

		x := areaX + offset + (tileW+gap)*float64(col)
		y := areaTop + (tileH+gap)*float64(row) + (1-a)*24*u

		c.FillRoundedRect(x, y, tileW, tileH, 20*u, th.card, a)
		c.Text(st.Value, x+tileW/2, y+tileH*0.42, raster.TextStyle{
			Size: math.Min(80*u, tileH*0.35), Bold: true, Color: th.accent2, Opacity: a,
			Align: raster.AlignCenter, MaxWidth: tileW * 0.85,
		})
		c.Text(st.Label, x+tileW/2, y+tileH*0.75, raster.TextStyle{
			Size: math.Min(30*u, tileH*0.15), Color: th.muted, Opacity: a,
			Align: raster.AlignCenter, MaxWidth: tileW * 0.85,
		})
	}
}

func drawVersionTitle(c *raster.Canvas, th theme, p float64, v scene.VersionTitleContent) {
	u := c.Unit
	cx := c.W/2 + animation.SlideIn(p, c.W)

	label := v.Version
	if !strings.HasPrefix(strings.ToLower(label), "v") {
		label = "v" + label
	}
	size := 120 * u
	tw := math.Min(c.MeasureText(label, size, true), c.W*0.7)
	pw, ph := tw+80*u, size*1.4

	c.FillRoundedRect(cx-pw/2, c.H*0.4-ph/2, pw, ph, ph/2, th.accent, 1)
	c.Text(label, cx, c.H*0.4, raster.TextStyle{
		Size: size, Bold: true, Color: th.text, Opacity: 1,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.7,
	})
	c.Text(v.Title, cx, c.H*0.6, raster.TextStyle{
		Size: 56 * u, Bold: true, Color: th.text, Opacity: 1,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.8,
	})
	c.Text(v.Date, cx, c.H*0.69, raster.TextStyle{
		Size: 32 * u, Color: th.muted, Opacity: 1,
		Align: raster.AlignCenter, MaxWidth: c.W * 0.8,
	})
}

func drawNewFeatures(c *raster.Canvas, th theme, p float64, v scene.NewFeaturesContent) {
	heading := v.Title
	if heading == "" {
		heading = "What's new"
		if v.Version != "" {
			heading += " in " + v.Version
		}
	}
	drawHeading(c, th, heading, animation.FadeIn(p))

	u := c.Unit
	n := len(v.Features)
	cols := 2
	if n == 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols
	gap := 28 * u
	areaX, areaW := c.W*0.08, c.W*0.84
	top, areaH := c.H*0.26, c.H*0.66

	cardW := (areaW - gap*float64(cols-1)) / float64(cols)
	cardH := math.Min((areaH-gap*float64(rows-1))/float64(rows), 200*u)

	for i, f := range v.Features {
		a := animation.Stagger(p, i, n)
		x := areaX + (cardW+gap)*float64(i%cols)
		y := top + (cardH+gap)*float64(i/cols) + (1-a)*30*u

		c.FillRoundedRect(x, y, cardW, cardH, 16*u, th.card, a)
		c.FillRoundedRect(x, y, 8*u, cardH, 4*u, th.accent, a)
		c.Text(f.Name, x+32*u, y+cardH*0.36, raster.TextStyle{
			Size: math.Min(40*u, cardH*0.22), Bold: true, Color: th.text, Opacity: a,
			MaxWidth: cardW - 56*u,
		})
		c.Text(f.Description, x+32*u, y+cardH*0.68, raster.TextStyle{
			Size: math.Min(28*u, cardH*0.16), Color: th.muted, Opacity: a,
			MaxWidth: cardW - 56*u,
		})
	}
}

func drawImprovements(c *raster.Canvas, th theme, p float64, v scene.ImprovementsContent) {
	heading := v.Title
	if heading == "" {
		heading = "Improvements"
	}
	drawHeading(c, th, heading, animation.FadeIn(p))

	u := c.Unit
	n := len(v.Items)
	top := c.H * 0.28
	step := math.Min(c.H*0.62/float64(n), 100*u)
	r := math.Min(18*u, step*0.25)
	x := c.W * 0.18

	for i, item := range v.Items {
		a := animation.Stagger(p, i, n)
		y := top + step*(float64(i)+0.5)
		cx := x + (1-a)*40*u

		c.FillCircle(cx, y, r, th.accent, a)
		// check mark
		c.StrokeLine(raster.Pt{X: cx - r*0.45, Y: y + r*0.05}, raster.Pt{X: cx - r*0.1, Y: y + r*0.4}, r*0.22, th.text, a)
		c.StrokeLine(raster.Pt{X: cx - r*0.1, Y: y + r*0.4}, raster.Pt{X: cx + r*0.5, Y: y - r*0.35}, r*0.22, th.text, a)
		c.Text(item, cx+r+24*u, y, raster.TextStyle{
			Size: math.Min(38*u, step*0.45), Color: th.text, Opacity: a, MaxWidth: c.W * 0.7,
		})
	}
}
