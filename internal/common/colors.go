package common

import (
	"image/color"
)

// TeamColors is the colour scheme for each team index.
var TeamColors = map[int]color.RGBA{
	0: {200, 50, 50, 255},  // Red
	1: {50, 100, 200, 255}, // Blue
}

// Heatmap colours
var (
	UnknownColor    = color.RGBA{0, 0, 0, 255}
	WallColor       = color.RGBA{80, 80, 80, 255}
	HomeMarkerColor = color.RGBA{255, 255, 255, 255}
	NearColor       = color.RGBA{255, 230, 60, 255}
	FarColor        = color.RGBA{40, 20, 120, 255}
)

// Gradient interpolates between NearColor (frac 0) and FarColor (frac 1).
func Gradient(frac float64) color.RGBA {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*frac + 0.5)
	}
	return color.RGBA{
		R: lerp(NearColor.R, FarColor.R),
		G: lerp(NearColor.G, FarColor.G),
		B: lerp(NearColor.B, FarColor.B),
		A: 255,
	}
}
