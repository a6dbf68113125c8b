package processes

import (
	"tectonics/crust"
)

// LithificationPressure is the overpressure in Pa above which loose sediment
// compacts into sedimentary rock, about 500 ft of sediment at 1500 kg/m³
const LithificationPressure = 2.2e6

// MetamorphosisPressure is the overpressure in Pa above which sedimentary
// rock turns metamorphic, about 11 km of sedimentary rock
const MetamorphosisPressure = 300e6

// Lithification converts sediment buried beyond the lithification pressure
// into sedimentary rock
func Lithification(env Env, top, delta *crust.Crust) {
	delta.Reset()
	g := env.SurfaceGravity
	for i, sediment := range top.Sediment {
		overpressure := sediment * g
		excess := overpressure - LithificationPressure
		mass := clamp(excess/g, 0, sediment)
		delta.Sediment[i] = -mass
		delta.Sedimentary[i] = mass
	}
}

// Metamorphosis converts sedimentary rock buried beyond the metamorphosis
// pressure into metamorphic rock. Overpressure counts the weight of both
// sediment and sedimentary rock, but only sedimentary rock is converted.
func Metamorphosis(env Env, top, delta *crust.Crust) {
	delta.Reset()
	g := env.SurfaceGravity
	for i := range top.Sedimentary {
		overpressure := (top.Sediment[i] + top.Sedimentary[i]) * g
		excess := overpressure - MetamorphosisPressure
		mass := clamp(excess/g, 0, top.Sedimentary[i])
		delta.Sedimentary[i] = -mass
		delta.Metamorphic[i] = mass
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
