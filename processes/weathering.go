package processes

import (
	"math"

	"tectonics/crust"
	"tectonics/scratch"
)

// weatheredPools are the bedrock pools weathering breaks down into sediment
var weatheredPools = []crust.Pool{crust.Sedimentary, crust.Metamorphic, crust.FelsicPlutonic, crust.FelsicVolcanic}

// Weathering breaks exposed bedrock down into sediment. The rate grows with
// local relief and rainfall and stops once sediment buries the bedrock.
func Weathering(env Env, top, delta *crust.Crust, pad *scratch.Stack) {
	delta.Reset()

	cp := pad.Checkpoint("processes.Weathering")
	defer cp.Release()

	n := top.Len()
	relief := cp.Float64s(n)
	averageHeightDrop(env, relief)

	felsicDensity := env.Material.FelsicPlutonic
	gravityRatio := env.SurfaceGravity / EarthSurfaceGravity
	rate := env.Rates.Rainfall * env.Rates.WeatheringFactor * env.Seconds * felsicDensity * gravityRatio

	for i := 0; i < n; i++ {
		bedrock := 0.0
		for _, p := range weatheredPools {
			bedrock += top.Pool(p)[i]
		}
		if bedrock < minPoolMass {
			continue
		}

		exposure := bedrockExposure(top.Sediment[i]/env.Material.Sediment, env.Rates.CriticalSedimentThickness)
		weathered := math.Min(relief[i]*rate*exposure, bedrock)
		if weathered <= 0 {
			continue
		}

		total := 0.0
		for _, p := range weatheredPools {
			change := -weathered * top.Pool(p)[i] / bedrock
			delta.Pool(p)[i] = change
			total += change
		}
		delta.Sediment[i] = -total
	}
}

// bedrockExposure is 1 for bare rock and falls linearly to 0 once the
// sediment cover reaches the critical thickness
func bedrockExposure(sedimentThickness, critical float64) float64 {
	if critical <= 0 {
		if sedimentThickness > 0 {
			return 0
		}
		return 1
	}
	return clamp(1-sedimentThickness/critical, 0, 1)
}

// averageHeightDrop writes, per cell, the mean over its neighbors of how far
// each neighbor lies below it
func averageHeightDrop(env Env, result []float64) {
	h := env.SurfaceHeight
	for i, neighbors := range env.Grid.Neighbors {
		if len(neighbors) == 0 {
			result[i] = 0
			continue
		}
		sum := 0.0
		for _, j := range neighbors {
			sum += math.Max(h[i]-h[j], 0)
		}
		result[i] = sum / float64(len(neighbors))
	}
}
