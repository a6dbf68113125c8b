package simulation

import (
	"tectonics/crust"
	"tectonics/field"
)

// Share of subducted conserved mass that accretes to the overriding plate as
// plutonic rock; the rest accretes as volcanic rock
const accretedPlutonicFraction = 0.85

// subductPlates detaches overridden, negatively buoyant crust from the edges
// of every plate. The conserved mass it carried is handed to the overriding
// plate through the accretion delta, which the next CalcChanges picks up.
func (l *Lithosphere) subductPlates() {
	l.accretion.Reset()

	n := l.grid.VertexCount()
	cp := l.pad.Checkpoint("simulation.subductPlates")
	defer cp.Release()

	candidate := cp.Bools(n)
	localCandidate := cp.Bools(n)
	overridden := cp.Bools(n)
	detached := cp.Bools(n)
	padding := cp.Bools(n)
	sinking := cp.Bools(n)
	mass := cp.Float64s(n)
	thickness := cp.Float64s(n)
	density := cp.Float64s(n)
	conserved := cp.Float64s(n)
	globalConserved := cp.Float64s(n)

	mantle := l.deps.MaterialDensity.Mantle
	for i, plate := range l.Plates {
		for g, count := range l.PlateCount {
			candidate[g] = count != 1 && l.TopPlateMap[g] != i
		}
		plate.LocalMask(localCandidate, candidate)

		// overridden crust is metamorphosed in place whether or not it
		// detaches this step
		copy(overridden, localCandidate)
		field.And(overridden, plate.Mask)
		metamorphose(plate.Crust, overridden)

		plate.Density(mass, thickness, density)
		field.Erode(l.grid, detached, localCandidate)
		field.Padding(l.grid, padding, plate.Mask)
		field.And(detached, padding)
		field.GreaterThan(sinking, density, mantle)
		field.And(detached, sinking)
		// accreted mass has to land under some plate or the next merge drops it
		for c, d := range detached {
			if d && l.TopPlateMap[plate.GlobalIDsOfLocalCells[c]] == NoPlate {
				detached[c] = false
			}
		}

		cells := field.Count(detached)
		if cells == 0 {
			continue
		}

		plate.Crust.ConservedMass(conserved)
		field.ZeroWhereNot(conserved, detached)
		field.AndNot(plate.Mask, detached)
		plate.Crust.FillWhere(crust.RockColumn{}, detached)

		clear(globalConserved)
		field.ScatterAdd(globalConserved, conserved, plate.GlobalIDsOfLocalCells)
		field.AddScaled(l.accretion.FelsicPlutonic, accretedPlutonicFraction, globalConserved)
		field.AddScaled(l.accretion.FelsicVolcanic, 1-accretedPlutonicFraction, globalConserved)

		logger.Debug("plate subducted", "plate", plate.ID, "cells", cells, "mass", field.Sum(conserved))
	}
}

// metamorphose converts every other conserved pool into metamorphic rock
// wherever mask is set
func metamorphose(c *crust.Crust, mask []bool) {
	for i, m := range mask {
		if !m {
			continue
		}
		c.Metamorphic[i] += c.Sediment[i] + c.Sedimentary[i] + c.FelsicPlutonic[i] + c.FelsicVolcanic[i]
		c.Sediment[i] = 0
		c.Sedimentary[i] = 0
		c.FelsicPlutonic[i] = 0
		c.FelsicVolcanic[i] = 0
	}
}
