// Package processes computes the crust deltas produced by surface and burial
// processes over one timestep.
//
// Every model reads a snapshot of the topmost crust and writes a complete
// delta: the output is reset first, so pools a model does not touch are 0.
// Models never modify their input.
package processes

import (
	"tectonics/core"
	"tectonics/crust"
)

// EarthSurfaceGravity is the reference gravity rates are calibrated against, in m/s²
const EarthSurfaceGravity = 9.8

// minPoolMass is the combined pool mass in kg/m² below which a cell is
// treated as empty when splitting a transfer across pools
const minPoolMass = 1e-6

// Rates are the tunable rate constants of weathering and erosion
type Rates struct {
	// Rainfall is the global precipitation rate in m/s
	Rainfall float64
	// WeatheringFactor and ErosionFactor are in 1/m
	WeatheringFactor float64
	ErosionFactor    float64
	// CriticalSedimentThickness is the sediment cover in meters above which
	// bedrock no longer weathers
	CriticalSedimentThickness float64
}

// DefaultRates returns rates calibrated for roughly 50 m/My of erosion on
// kilometer-scale relief
func DefaultRates() Rates {
	return Rates{
		Rainfall:                  1 / crust.Year,
		WeatheringFactor:          2.5e-8,
		ErosionFactor:             5e-8,
		CriticalSedimentThickness: 1,
	}
}

// Env is everything a process model reads besides the crust itself
type Env struct {
	Grid           *core.Grid
	SurfaceHeight  []float64
	Seconds        float64
	Material       crust.MaterialDensity
	SurfaceGravity float64
	Rates          Rates
}
