package crust

import (
	"math"

	"tectonics/field"
)

// These predicates observe conservation; nothing in the simulation branches
// on them. They exist for tests and diagnostics.

// IsConservedDelta reports whether the conserved pools of delta sum to zero
// globally within threshold
func IsConservedDelta(delta *Crust, threshold float64) bool {
	return math.Abs(field.Sum(delta.ConservedArray)) < threshold
}

// IsConservedTransportDelta reports whether every conserved pool of delta sums
// to zero on its own. Transport such as erosion moves mass without changing
// its type.
func IsConservedTransportDelta(delta *Crust, threshold float64) bool {
	for _, p := range ConservedPools {
		if math.Abs(field.Sum(delta.Pool(p))) >= threshold {
			return false
		}
	}
	return true
}

// IsConservedReactionDelta reports whether delta only converts mass between
// pools within each cell: the per-cell sum over conserved pools, squared and
// summed over cells, stays below threshold.
func IsConservedReactionDelta(delta *Crust, threshold float64) bool {
	total := 0.0
	for i := 0; i < delta.Len(); i++ {
		cell := 0.0
		for _, p := range ConservedPools {
			cell += delta.pools[p][i]
		}
		total += cell * cell
	}
	return total < threshold
}
