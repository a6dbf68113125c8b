package simulation

import (
	"math"

	"tectonics/crust"
)

// memo caches one derived raster until the next invalidation
type memo struct {
	valid  bool
	values []float64
}

func (m *memo) get(compute func(result []float64)) []float64 {
	if !m.valid {
		compute(m.values)
		m.valid = true
	}
	return m.values
}

// derivedFields are rasters computed from TotalCrust on demand. They are
// invalidated once per step, after the plates are merged.
type derivedFields struct {
	mass          memo
	thickness     memo
	density       memo
	buoyancy      memo
	displacement  memo
	surfaceHeight memo
}

func (d *derivedFields) init(n int) {
	for _, m := range d.all() {
		m.values = make([]float64, n)
	}
}

func (d *derivedFields) invalidate() {
	for _, m := range d.all() {
		m.valid = false
	}
}

func (d *derivedFields) all() []*memo {
	return []*memo{&d.mass, &d.thickness, &d.density, &d.buoyancy, &d.displacement, &d.surfaceHeight}
}

// Mass returns the total mass per cell in kg/m²
func (l *Lithosphere) Mass() []float64 {
	return l.derived.mass.get(func(result []float64) {
		l.TotalCrust.TotalMass(result)
	})
}

// Thickness returns the crust thickness per cell in meters
func (l *Lithosphere) Thickness() []float64 {
	return l.derived.thickness.get(func(result []float64) {
		l.TotalCrust.Thickness(*l.deps.MaterialDensity, result)
	})
}

// Density returns the bulk crust density per cell; empty cells report the
// mantle density
func (l *Lithosphere) Density() []float64 {
	return l.derived.density.get(func(result []float64) {
		crust.Density(l.Mass(), l.Thickness(), l.deps.MaterialDensity.Mantle, result)
	})
}

// Buoyancy returns min(g·(ρ−ρm), 0) per cell
func (l *Lithosphere) Buoyancy() []float64 {
	return l.derived.buoyancy.get(func(result []float64) {
		crust.Buoyancy(l.Density(), l.deps.MaterialDensity.Mantle, *l.deps.SurfaceGravity, result)
	})
}

// Displacement returns the isostatic elevation of the crust surface in meters
func (l *Lithosphere) Displacement() []float64 {
	return l.derived.displacement.get(func(result []float64) {
		thickness, density := l.Thickness(), l.Density()
		mantle := l.deps.MaterialDensity.Mantle
		for i := range result {
			result[i] = thickness[i]*(1-density[i]/mantle) - l.opts.IsostaticDatum
		}
	})
}

// SurfaceHeight returns the height of the surface exposed to weather:
// displacement above sea level, sea level over the ocean
func (l *Lithosphere) SurfaceHeight() []float64 {
	return l.derived.surfaceHeight.get(func(result []float64) {
		SurfaceHeight(l.Displacement(), *l.deps.Sealevel, result)
	})
}

// SurfaceHeight flattens everything below sealevel to sealevel
func SurfaceHeight(displacement []float64, sealevel float64, result []float64) []float64 {
	for i, d := range displacement {
		result[i] = math.Max(d, sealevel)
	}
	return result
}
