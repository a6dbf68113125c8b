package simulation

import (
	"math"

	"tectonics/crust"
	"tectonics/field"
)

// ranksAbove decides which of two plates covering a cell is drawn on top:
// the less dense one, or on equal density the one earlier in the roster.
// best is NoPlate when nothing covers the cell yet.
func ranksAbove(density float64, index int, bestDensity float64, best int) bool {
	if best == NoPlate {
		return true
	}
	if density != bestDensity {
		return density < bestDensity
	}
	return index < best
}

// mergePlatesToMaster rebuilds TotalCrust, TopCrust, TopPlateMap and
// PlateCount from the plates in roster order
func (l *Lithosphere) mergePlatesToMaster() {
	n := l.grid.VertexCount()
	cp := l.pad.Checkpoint("simulation.mergePlatesToMaster")
	defer cp.Release()

	globalMask := cp.Bools(n)
	onTop := cp.Bools(n)
	mass := cp.Float64s(n)
	thickness := cp.Float64s(n)
	localDensity := cp.Float64s(n)
	globalDensity := cp.Float64s(n)

	l.TotalCrust.Reset()
	l.TopCrust.Reset()
	field.Fill(l.masterDensity, math.Inf(1))
	for g := range l.TopPlateMap {
		l.TopPlateMap[g] = NoPlate
		l.PlateCount[g] = 0
	}

	globalCrust := l.crustScratch
	for i, plate := range l.Plates {
		plate.GlobalMask(globalMask)
		plate.Density(mass, thickness, localDensity)
		field.Gather(globalDensity, localDensity, plate.LocalIDsOfGlobalCells)
		plate.GlobalCrust(globalCrust)

		for g, exists := range globalMask {
			onTop[g] = exists && ranksAbove(globalDensity[g], i, l.masterDensity[g], l.TopPlateMap[g])
			if onTop[g] {
				l.TopPlateMap[g] = i
				l.masterDensity[g] = globalDensity[g]
			}
			if exists {
				l.PlateCount[g]++
			}
		}

		l.TopCrust.Select(globalCrust, onTop)
		crust.Overlap(l.TotalCrust, globalCrust, globalMask, onTop, l.TotalCrust)
	}
}
