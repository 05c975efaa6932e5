package renderer

import (
	"image/color"

	"github.com/ivlev/scene2video/internal/scene"
)

type theme struct {
	top, bottom color.NRGBA
	accent      color.NRGBA
	accent2     color.NRGBA
	text        color.NRGBA
	muted       color.NRGBA
	card        color.NRGBA
	cardEdge    color.NRGBA
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

var baseTheme = theme{
	top:      rgb(0x0f, 0x17, 0x2a),
	bottom:   rgb(0x1e, 0x1b, 0x4b),
	accent:   rgb(0x63, 0x66, 0xf1),
	accent2:  rgb(0x22, 0xd3, 0xee),
	text:     rgb(0xf8, 0xfa, 0xfc),
	muted:    rgb(0x94, 0xa3, 0xb8),
	card:     color.NRGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xcc},
	cardEdge: rgb(0x47, 0x55, 0x69),
}

func themeFor(k scene.Kind) theme {
	t := baseTheme
	switch k {
	case scene.KindCallToAction:
		t.top = rgb(0x31, 0x2e, 0x81)
		t.bottom = rgb(0x0f, 0x17, 0x2a)
		t.accent = rgb(0xf5, 0x9e, 0x0b)
	case scene.KindVersionTitle, scene.KindNewFeatures, scene.KindImprovements:
		t.bottom = rgb(0x06, 0x4e, 0x3b)
		t.accent = rgb(0x10, 0xb9, 0x81)
	case scene.KindDashboard, scene.KindStatistics:
		t.bottom = rgb(0x1e, 0x29, 0x3b)
	}
	return t
}
