// Package rendering turns lithosphere frames into colors and equirectangular
// maps for viewers.
package rendering

import (
	"math"

	"github.com/crazy3lf/colorconv"
	rl "github.com/gen2brain/raylib-go/raylib"

	"tectonics/simulation"
)

// goldenAngle spreads consecutive plate ids around the hue circle
const goldenAngle = 137.50776

var (
	noPlateColor = rl.Color{R: 20, G: 20, B: 20, A: 255}
	deepOcean    = rl.Color{R: 10, G: 30, B: 90, A: 255}
	shallowOcean = rl.Color{R: 60, G: 120, B: 200, A: 255}
	lowland      = rl.Color{R: 70, G: 140, B: 60, A: 255}
	highland     = rl.Color{R: 150, G: 120, B: 80, A: 255}
	peak         = rl.Color{R: 240, G: 240, B: 240, A: 255}
)

// PlateColor returns a stable, distinct color for a plate roster index
func PlateColor(index int) rl.Color {
	if index == simulation.NoPlate {
		return noPlateColor
	}
	hue := math.Mod(float64(index)*goldenAngle, 360)
	r, g, b, err := colorconv.HSVToRGB(hue, 0.65, 0.9)
	if err != nil {
		return noPlateColor
	}
	return rl.Color{R: r, G: g, B: b, A: 255}
}

// HeightColor maps a surface height in meters relative to sealevel onto a
// hypsometric ramp
func HeightColor(height, sealevel float64) rl.Color {
	h := height - sealevel
	switch {
	case h <= -6000:
		return deepOcean
	case h <= 0:
		return lerp(deepOcean, shallowOcean, (h+6000)/6000)
	case h <= 1500:
		return lerp(lowland, highland, h/1500)
	case h <= 5000:
		return lerp(highland, peak, (h-1500)/3500)
	default:
		return peak
	}
}

func lerp(a, b rl.Color, t float64) rl.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
