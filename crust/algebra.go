package crust

import (
	"math"
)

// Seconds per year and per million years
const (
	Year     = 365.25 * 24 * 60 * 60
	MegaYear = 1e6 * Year
)

// MaficSolidificationWindow is the age over which mafic crust cools from its
// young density to its old density
const MaficSolidificationWindow = 250 * MegaYear

// MaterialDensity holds densities in kg/m³
type MaterialDensity struct {
	Sediment       float64 `yaml:"sediment" json:"sediment"`
	Sedimentary    float64 `yaml:"sedimentary" json:"sedimentary"`
	Metamorphic    float64 `yaml:"metamorphic" json:"metamorphic"`
	FelsicPlutonic float64 `yaml:"felsic_plutonic" json:"felsic_plutonic"`
	FelsicVolcanic float64 `yaml:"felsic_volcanic" json:"felsic_volcanic"`

	// Mafic density ramps from Min at age 0 to Max at the end of the
	// solidification window
	MaficVolcanicMin float64 `yaml:"mafic_volcanic_min" json:"mafic_volcanic_min"`
	MaficVolcanicMax float64 `yaml:"mafic_volcanic_max" json:"mafic_volcanic_max"`

	Mantle float64 `yaml:"mantle" json:"mantle"`
	Ocean  float64 `yaml:"ocean" json:"ocean"`
}

// EarthMaterialDensity returns Earth-like densities
func EarthMaterialDensity() MaterialDensity {
	return MaterialDensity{
		Sediment:         2500,
		Sedimentary:      2600,
		Metamorphic:      2800,
		FelsicPlutonic:   2600,
		FelsicVolcanic:   2700,
		MaficVolcanicMin: 2890,
		MaficVolcanicMax: 3300,
		Mantle:           3075,
		Ocean:            1026,
	}
}

// MaficDensity returns the density of mafic crust of the given age
func (m MaterialDensity) MaficDensity(age float64) float64 {
	fraction := math.Min(math.Max(age/MaficSolidificationWindow, 0), 1)
	return m.MaficVolcanicMin + (m.MaficVolcanicMax-m.MaficVolcanicMin)*fraction
}

// TotalMass writes the per-cell sum of all mass pools into result
func (c *Crust) TotalMass(result []float64) []float64 {
	clear(result)
	for _, p := range MassPools {
		for i, v := range c.pools[p] {
			result[i] += v
		}
	}
	return result
}

// ConservedMass writes the per-cell sum of the conserved pools into result
func (c *Crust) ConservedMass(result []float64) []float64 {
	clear(result)
	for _, p := range ConservedPools {
		for i, v := range c.pools[p] {
			result[i] += v
		}
	}
	return result
}

// Thickness writes the per-cell height of the column in meters into result
func (c *Crust) Thickness(material MaterialDensity, result []float64) []float64 {
	for i := range result {
		mafic := material.MaficDensity(c.Age[i])
		result[i] = c.Sediment[i]/material.Sediment +
			c.Sedimentary[i]/material.Sedimentary +
			c.Metamorphic[i]/material.Metamorphic +
			c.FelsicPlutonic[i]/material.FelsicPlutonic +
			c.FelsicVolcanic[i]/material.FelsicVolcanic +
			c.MaficVolcanic[i]/mafic +
			c.MaficPlutonic[i]/mafic
	}
	return result
}

// Density writes mass/thickness into result, or defaultDensity where the
// column has no thickness
func Density(mass, thickness []float64, defaultDensity float64, result []float64) []float64 {
	for i := range result {
		if thickness[i] > 0 {
			result[i] = mass[i] / thickness[i]
		} else {
			result[i] = defaultDensity
		}
	}
	return result
}

// Buoyancy writes min(gravity*(density-mantleDensity), 0) into result;
// positive values are clamped to 0.
func Buoyancy(density []float64, mantleDensity, gravity float64, result []float64) []float64 {
	for i, rho := range density {
		result[i] = math.Min(gravity*(rho-mantleDensity), 0)
	}
	return result
}
