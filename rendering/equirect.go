package rendering

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tectonics/core"
	"tectonics/simulation"
)

type Mode int

const (
	ModePlates Mode = iota
	ModeHeight
)

func (m Mode) String() string {
	switch m {
	case ModePlates:
		return "plates"
	case ModeHeight:
		return "height"
	default:
		return "unknown"
	}
}

// Equirect samples grid cells onto a width by height latitude/longitude raster
type Equirect struct {
	Width, Height int
	// Cells holds the grid vertex nearest to each pixel, row-major from the north-west
	Cells []int
}

func NewEquirect(grid *core.Grid, width, height int) *Equirect {
	e := &Equirect{Width: width, Height: height, Cells: make([]int, width*height)}
	hint := -1
	for y := 0; y < height; y++ {
		lat := math.Pi/2 - (float64(y)+0.5)*math.Pi/float64(height)
		for x := 0; x < width; x++ {
			lon := -math.Pi + (float64(x)+0.5)*2*math.Pi/float64(width)
			p := core.GeographicToUnit(core.Geographic{Lat: lat, Lon: lon})
			// neighboring pixels map to nearby cells
			hint = grid.NearestID(p, hint)
			e.Cells[y*width+x] = hint
		}
	}
	return e
}

// Render colors every pixel from a frame. dst is reused when large enough.
func (e *Equirect) Render(frame simulation.Frame, mode Mode, sealevel float64, dst []rl.Color) []rl.Color {
	if cap(dst) < len(e.Cells) {
		dst = make([]rl.Color, len(e.Cells))
	}
	dst = dst[:len(e.Cells)]
	for i, cell := range e.Cells {
		switch mode {
		case ModeHeight:
			h := math.Inf(-1)
			if cell < len(frame.SurfaceHeight) {
				h = frame.SurfaceHeight[cell]
			}
			dst[i] = HeightColor(h, sealevel)
		default:
			plate := simulation.NoPlate
			if cell < len(frame.TopPlate) {
				plate = frame.TopPlate[cell]
			}
			dst[i] = PlateColor(plate)
		}
	}
	return dst
}
