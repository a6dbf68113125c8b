package simulation

import (
	"math"

	"tectonics/core"
	"tectonics/crust"
	"tectonics/field"
)

// Plate is a rigid fragment of lithosphere.
//
// A plate keeps its crust in its own local frame: local cell l is grid vertex
// l rotated by the plate's accumulated rotation. The two id maps translate
// between that frame and the global grid by nearest vertex. Mask marks which
// local cells the plate actually occupies.
type Plate struct {
	ID    int
	Crust *crust.Crust
	Mask  []bool

	// LocalIDsOfGlobalCells[g] is the local cell under global vertex g
	LocalIDsOfGlobalCells []int
	// GlobalIDsOfLocalCells[l] is the global vertex local cell l sits over
	GlobalIDsOfLocalCells []int

	// Motion is a rotation about EulerPole (unit axis) at AngularSpeed rad/s;
	// Rotation is the angle accumulated so far
	EulerPole    core.Vector3
	AngularSpeed float64
	Rotation     float64

	grid *core.Grid
	deps Dependencies
}

// NewPlate creates a plate over grid with the given occupancy and crust. The
// plate starts unrotated, so both id maps are the identity.
func NewPlate(id int, grid *core.Grid, c *crust.Crust, mask []bool) *Plate {
	n := grid.VertexCount()
	p := &Plate{
		ID:                    id,
		Crust:                 c,
		Mask:                  mask,
		LocalIDsOfGlobalCells: make([]int, n),
		GlobalIDsOfLocalCells: make([]int, n),
		EulerPole:             core.Vector3{Y: 1},
		grid:                  grid,
	}
	for i := 0; i < n; i++ {
		p.LocalIDsOfGlobalCells[i] = i
		p.GlobalIDsOfLocalCells[i] = i
	}
	return p
}

// SetDependencies overlays the set fields of deps onto the plate's
func (p *Plate) SetDependencies(deps Dependencies) {
	p.deps = p.deps.merge(deps)
}

// Move advances the plate's rotation by seconds and rebuilds its id maps
func (p *Plate) Move(seconds float64) {
	if p.AngularSpeed == 0 || seconds == 0 {
		return
	}
	p.Rotation = math.Remainder(p.Rotation+p.AngularSpeed*seconds, 2*math.Pi)
	p.remap()
}

// remap rebuilds both id maps from the current rotation. Previous ids seed
// the nearest-vertex search since plates move little per step.
func (p *Plate) remap() {
	positions := p.grid.Positions
	for l, pos := range positions {
		global := pos.Rotate(p.EulerPole, p.Rotation)
		p.GlobalIDsOfLocalCells[l] = p.grid.NearestID(global, p.GlobalIDsOfLocalCells[l])
	}
	for g, pos := range positions {
		local := pos.Rotate(p.EulerPole, -p.Rotation)
		p.LocalIDsOfGlobalCells[g] = p.grid.NearestID(local, p.LocalIDsOfGlobalCells[g])
	}
}

// GlobalMask resamples the occupancy mask into global space
func (p *Plate) GlobalMask(dst []bool) []bool {
	field.GatherBools(dst, p.Mask, p.LocalIDsOfGlobalCells)
	return dst
}

// GlobalCrust resamples the plate's crust into global space
func (p *Plate) GlobalCrust(dst *crust.Crust) *crust.Crust {
	dst.Gather(p.Crust, p.LocalIDsOfGlobalCells)
	return dst
}

// LocalMask resamples a global mask into the plate's frame
func (p *Plate) LocalMask(dst, global []bool) []bool {
	field.GatherBools(dst, global, p.GlobalIDsOfLocalCells)
	return dst
}

// Density writes the local density of the plate's crust into result, using
// mass and thickness as scratch. Empty cells report the mantle density.
func (p *Plate) Density(mass, thickness, result []float64) []float64 {
	material := *p.deps.MaterialDensity
	p.Crust.TotalMass(mass)
	p.Crust.Thickness(material, thickness)
	return crust.Density(mass, thickness, material.Mantle, result)
}

// Area returns the number of occupied local cells
func (p *Plate) Area() int {
	return field.Count(p.Mask)
}
