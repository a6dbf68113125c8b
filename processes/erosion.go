package processes

import (
	"math"

	"tectonics/crust"
	"tectonics/scratch"
)

// erodedPools is the order in which erosion strips a column: loose sediment
// first, then progressively harder rock
var erodedPools = []crust.Pool{crust.Sediment, crust.Sedimentary, crust.Metamorphic, crust.FelsicPlutonic, crust.FelsicVolcanic}

// Erosion moves conserved mass downhill along the grid's arrows.
//
// The first pass decides, for every arrow, what fraction of each source pool
// leaves along it; the second applies the transfers. Fractions only depend on
// the input crust, so the result does not depend on arrow order.
func Erosion(env Env, top, delta *crust.Crust, pad *scratch.Stack) {
	delta.Reset()

	cp := pad.Checkpoint("processes.Erosion")
	defer cp.Release()

	arrows := env.Grid.Arrows
	fractions := make([][]float64, len(erodedPools))
	for k := range fractions {
		fractions[k] = cp.Float64s(len(arrows))
	}

	h := env.SurfaceHeight
	rate := env.Rates.Rainfall * env.Seconds * env.Rates.ErosionFactor * env.Material.FelsicPlutonic

	for e, arrow := range arrows {
		from, to := arrow[0], arrow[1]
		remaining := math.Max(h[from]-h[to], 0) * rate
		if remaining <= 0 {
			continue
		}

		// a cell drains along all of its arrows, so each arrow carries only
		// its share of the source pool
		neighbors := float64(env.Grid.NeighborCount(from))
		for k, p := range erodedPools {
			available := top.Pool(p)[from]
			if available < minPoolMass {
				continue
			}
			fraction := clamp(remaining/available, 0, 1) / neighbors
			fractions[k][e] = fraction
			remaining *= 1 - fraction
			if remaining <= 0 {
				break
			}
		}
	}

	for e, arrow := range arrows {
		from, to := arrow[0], arrow[1]
		for k, p := range erodedPools {
			fraction := fractions[k][e]
			if fraction == 0 {
				continue
			}
			amount := fraction * top.Pool(p)[from]
			d := delta.Pool(p)
			d[from] -= amount
			d[to] += amount
		}
	}
}
