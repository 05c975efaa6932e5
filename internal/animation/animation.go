// Package animation holds the pure timing functions that drive scene drawing.
// Every function maps a scene-local progress in [0,1] (and sometimes an item
// index) to an opacity, offset, scale or rotation. Nothing here has state.
package animation

import (
	"image/color"
	"math"
)

// Progress returns the scene-local progress for a frame.
func Progress(frameIndex, totalFrames int) float64 {
	if totalFrames <= 0 {
		return 0
	}
	return float64(frameIndex) / float64(totalFrames)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// FadeIn reaches full opacity at the middle of the scene.
func FadeIn(progress float64) float64 {
	return Clamp(progress*2, 0, 1)
}

// Stagger returns the opacity of item i out of n. Items reveal one after
// another, each over a 1/n window of progress.
func Stagger(progress float64, i, n int) float64 {
	return Clamp(progress*float64(n)-float64(i), 0, 1)
}

// Pulse returns the uniform scale factor of the call-to-action block.
func Pulse(progress float64) float64 {
	return 0.9 + 0.1*math.Sin(progress*4*math.Pi)
}

// SlideIn returns the horizontal offset of sliding content. It starts one
// frame width to the right and rests from 2/3 of the scene on.
func SlideIn(progress float64, frameWidth float64) float64 {
	return frameWidth * (1 - math.Min(progress*1.5, 1))
}

// Cycle picks the active screen for a rotating showcase. sub is the progress
// within the active screen's slot and wobble the rotation in radians applied
// to it.
func Cycle(progress float64, count int) (active int, sub float64, wobble float64) {
	if count <= 0 {
		return 0, 0, 0
	}
	scaled := progress * float64(count)
	active = int(math.Floor(scaled)) % count
	if active < 0 {
		active += count
	}
	sub = math.Mod(scaled, 1)
	if sub < 0 {
		sub++
	}
	return active, sub, sub * 0.1
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpColor interpolates two colors channel by channel.
func LerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	t = Clamp(t, 0, 1)
	return color.NRGBA{
		R: uint8(math.Round(Lerp(float64(a.R), float64(b.R), t))),
		G: uint8(math.Round(Lerp(float64(a.G), float64(b.G), t))),
		B: uint8(math.Round(Lerp(float64(a.B), float64(b.B), t))),
		A: uint8(math.Round(Lerp(float64(a.A), float64(b.A), t))),
	}
}

// Alpha converts an opacity in [0,1] to an 8-bit alpha.
func Alpha(opacity float64) uint8 {
	return uint8(math.Round(Clamp(opacity, 0, 1) * 255))
}
