package simulation

import (
	"tectonics/crust"
	"tectonics/field"
	"tectonics/processes"
)

// calculateDeltas fills crustDelta with the combined change of every
// process model plus the accretion left by the previous subduction pass
func (l *Lithosphere) calculateDeltas(seconds float64) {
	env := processes.Env{
		Grid:           l.grid,
		SurfaceHeight:  l.SurfaceHeight(),
		Seconds:        seconds,
		Material:       *l.deps.MaterialDensity,
		SurfaceGravity: *l.deps.SurfaceGravity,
		Rates:          l.opts.Rates,
	}

	processes.Erosion(env, l.TopCrust, l.erosion, l.pad)
	processes.Weathering(env, l.TopCrust, l.weathering, l.pad)
	processes.Lithification(env, l.TopCrust, l.lithification)
	processes.Metamorphosis(env, l.TopCrust, l.metamorphosis)

	l.crustDelta.Reset()
	l.crustDelta.Add(l.erosion)
	l.crustDelta.Add(l.weathering)
	l.crustDelta.Add(l.lithification)
	l.crustDelta.Add(l.metamorphosis)
	l.crustDelta.Add(l.accretion)

	crust.FixDelta(l.crustDelta, l.TopCrust, l.pad)
}

// integrateDeltas adds crustDelta to the master crust and to each plate
// where that plate is on top, then ages every plate.
//
// Age is advanced uniformly rather than through the delta so the age field
// stays smooth; a patchwork of per-cell ages would show up as discontinuities
// in density.
func (l *Lithosphere) integrateDeltas(seconds float64) {
	l.TotalCrust.Add(l.crustDelta)

	cp := l.pad.Checkpoint("simulation.integrateDeltas")
	defer cp.Release()
	onTop := cp.Float64s(l.grid.VertexCount())

	for i, plate := range l.Plates {
		for g, top := range l.TopPlateMap {
			onTop[g] = 0
			if top == i {
				onTop[g] = 1
			}
		}

		masked := l.crustScratch
		masked.CopyFrom(l.crustDelta)
		masked.MultField(onTop)

		local := l.localScratch
		local.Reset()
		local.ScatterAdd(masked, plate.LocalIDsOfGlobalCells)

		plate.Crust.Add(local)
		plate.Crust.ClampMass()
		field.AddConst(plate.Crust.Age, seconds)
	}
}
