package crust

import (
	"tectonics/field"
	"tectonics/scratch"
)

// FixDelta corrects delta in place so that applying it to c leaves no
// conserved pool negative while leaving each pool's global sum unchanged.
//
// Each conserved pool is corrected on its own since pools are conserved
// independently. Cells whose delta would overdraw them are clamped to zero
// and the clamped amount is recovered by taxing every cell in proportion to
// what it still holds after the clamp.
func FixDelta(delta, c *Crust, pad *scratch.Stack) {
	cp := pad.Checkpoint("crust.FixDelta")
	defer cp.Release()

	remaining := cp.Float64s(c.Len())
	for _, p := range ConservedPools {
		fixNonnegativeConservedDelta(delta.Pool(p), c.Pool(p), remaining)
	}
}

func fixNonnegativeConservedDelta(delta, quantity, remaining []float64) {
	totalExcess, totalRemaining := 0.0, 0.0
	for i := range delta {
		excess := -(quantity[i] + delta[i])
		if excess < 0 {
			excess = 0
		}
		delta[i] += excess
		remaining[i] = quantity[i] + delta[i]
		totalExcess += excess
		totalRemaining += remaining[i]
	}
	if totalExcess == 0 || totalRemaining <= 0 {
		return
	}

	// A tax above 1 means the pool is overdrawn globally; the best we can do
	// is drain it to zero everywhere.
	tax := totalExcess / totalRemaining
	if tax > 1 {
		tax = 1
	}
	field.AddScaled(delta, -tax, remaining)
}
