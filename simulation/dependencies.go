package simulation

import (
	"errors"
	"fmt"

	"tectonics/crust"
)

// ErrMissingDependency is returned when a simulation entry point runs before
// every required dependency has been set
var ErrMissingDependency = errors.New("simulation: missing dependency")

// MaterialViscosity holds viscosities in Pa·s
type MaterialViscosity struct {
	Mantle float64 `yaml:"mantle" json:"mantle"`
}

// Dependencies are the world properties the lithosphere reads but does not
// own. A nil field is unset.
type Dependencies struct {
	Sealevel          *float64
	SurfaceGravity    *float64
	MaterialDensity   *crust.MaterialDensity
	MaterialViscosity *MaterialViscosity
}

// merge overlays the fields set in other onto d
func (d Dependencies) merge(other Dependencies) Dependencies {
	if other.Sealevel != nil {
		d.Sealevel = other.Sealevel
	}
	if other.SurfaceGravity != nil {
		d.SurfaceGravity = other.SurfaceGravity
	}
	if other.MaterialDensity != nil {
		d.MaterialDensity = other.MaterialDensity
	}
	if other.MaterialViscosity != nil {
		d.MaterialViscosity = other.MaterialViscosity
	}
	return d
}

// Assert returns ErrMissingDependency naming the first unset dependency
func (d Dependencies) Assert() error {
	switch {
	case d.Sealevel == nil:
		return fmt.Errorf("%w: sealevel", ErrMissingDependency)
	case d.SurfaceGravity == nil:
		return fmt.Errorf("%w: surface_gravity", ErrMissingDependency)
	case d.MaterialDensity == nil:
		return fmt.Errorf("%w: material_density", ErrMissingDependency)
	case d.MaterialViscosity == nil:
		return fmt.Errorf("%w: material_viscosity", ErrMissingDependency)
	}
	return nil
}
