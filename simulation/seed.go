package simulation

import (
	"math"

	"tectonics/core"
	"tectonics/crust"
)

// ContinentalMass is the felsic mass per unit area of a continent at rest,
// about 36 km of granite
const ContinentalMass = 36000 * 2650

// SeedCrust builds an initial world: juvenile ocean crust everywhere with
// felsic continents where low-frequency noise is high. seed shifts the noise
// so different seeds give different continents.
func SeedCrust(grid *core.Grid, opts Options, seed int64) *crust.Crust {
	c := crust.New(grid.VertexCount())
	c.Fill(opts.RiftingCrust)

	offset := core.Vector3{X: float64(seed%97) * 0.37, Y: float64(seed%89) * 0.61, Z: float64(seed%83) * 0.23}
	for i, pos := range grid.Positions {
		p := pos.Scale(2).Add(offset)
		n := terrainNoise(p.X, p.Y, p.Z)
		if n <= 0.15 {
			continue
		}
		// continents thicken toward their interior
		mass := ContinentalMass * math.Min((n-0.15)/0.2, 1)
		c.FelsicPlutonic[i] = 0.85 * mass
		c.FelsicVolcanic[i] = 0.15 * mass
	}
	return c
}

// terrainNoise combines a few incommensurate sine waves into smooth noise in [-1, 1]
func terrainNoise(x, y, z float64) float64 {
	n1 := math.Sin(x*3.14159) * math.Cos(y*2.71828) * math.Sin(z*1.41421)
	n2 := math.Sin(x*1.73205) * math.Sin(y*2.23607) * math.Cos(z*3.16227)
	n3 := math.Cos(x*2.44949) * math.Sin(y*1.61803) * math.Sin(z*2.64575)
	return (n1 + n2*0.5 + n3*0.25) / 1.75
}
