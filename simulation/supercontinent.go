package simulation

import (
	"math/rand"
)

// SupercontinentCycle periodically requests that the world be re-partitioned
// into fresh plates. Cycle lengths vary around MeanDuration but are drawn
// from Seed and Count, so a restored cycle continues identically.
type SupercontinentCycle struct {
	MeanDuration float64 // seconds
	Seed         int64

	Phase    float64 // seconds into the current cycle
	Duration float64 // length of the current cycle
	Count    int     // completed cycles
}

// NewSupercontinentCycle starts a cycle at phase 0
func NewSupercontinentCycle(meanDuration float64, seed int64) *SupercontinentCycle {
	c := &SupercontinentCycle{MeanDuration: meanDuration, Seed: seed}
	c.Duration = c.drawDuration()
	return c
}

// Update advances the phase by seconds and reports whether the cycle ended
func (c *SupercontinentCycle) Update(seconds float64) bool {
	c.Phase += seconds
	if c.Phase < c.Duration {
		return false
	}
	c.Phase = 0
	c.Count++
	c.Duration = c.drawDuration()
	return true
}

// Rand returns the random source for the current cycle
func (c *SupercontinentCycle) Rand() *rand.Rand {
	return rand.New(rand.NewSource(c.Seed*1000003 + int64(c.Count)))
}

func (c *SupercontinentCycle) drawDuration() float64 {
	return c.MeanDuration * (0.5 + c.Rand().Float64())
}
