package simulation

import (
	"errors"
	"fmt"

	"tectonics/core"
	"tectonics/crust"
)

// ErrGridMismatch is returned when state does not fit the lithosphere's grid
var ErrGridMismatch = errors.New("simulation: state does not match grid")

// PlateParameters is the saved state of one plate
type PlateParameters struct {
	ID           int
	Crust        []byte
	Mask         []bool
	EulerPole    core.Vector3
	AngularSpeed float64
	Rotation     float64
}

// Parameters is the saved state of a lithosphere between steps. Crust
// buffers are raw little-endian doubles, so a restore is exact.
type Parameters struct {
	Time        float64
	NextPlateID int
	Plates      []PlateParameters

	TotalCrust  []byte
	TopCrust    []byte
	Accretion   []byte
	TopPlateMap []int
	PlateCount  []int

	Supercontinent SupercontinentCycle
}

// Parameters captures the lithosphere's state
func (l *Lithosphere) Parameters() Parameters {
	params := Parameters{
		Time:           l.Time,
		NextPlateID:    l.nextPlateID,
		Plates:         make([]PlateParameters, 0, len(l.Plates)),
		TotalCrust:     l.TotalCrust.Bytes(),
		TopCrust:       l.TopCrust.Bytes(),
		Accretion:      l.accretion.Bytes(),
		TopPlateMap:    append([]int(nil), l.TopPlateMap...),
		PlateCount:     append([]int(nil), l.PlateCount...),
		Supercontinent: *l.Cycle,
	}
	for _, plate := range l.Plates {
		params.Plates = append(params.Plates, PlateParameters{
			ID:           plate.ID,
			Crust:        plate.Crust.Bytes(),
			Mask:         append([]bool(nil), plate.Mask...),
			EulerPole:    plate.EulerPole,
			AngularSpeed: plate.AngularSpeed,
			Rotation:     plate.Rotation,
		})
	}
	return params
}

// NewLithosphereFromParameters restores a lithosphere saved with Parameters
func NewLithosphereFromParameters(grid *core.Grid, opts Options, deps Dependencies, params Parameters) (*Lithosphere, error) {
	n := grid.VertexCount()
	if len(params.TopPlateMap) != n || len(params.PlateCount) != n {
		return nil, fmt.Errorf("%w: %d cells saved, grid has %d", ErrGridMismatch, len(params.TopPlateMap), n)
	}

	l := NewLithosphere(grid, opts)
	l.SetDependencies(deps)
	l.Time = params.Time
	l.nextPlateID = params.NextPlateID
	cycle := params.Supercontinent
	l.Cycle = &cycle

	for _, restore := range []struct {
		dst *crust.Crust
		raw []byte
	}{
		{l.TotalCrust, params.TotalCrust},
		{l.TopCrust, params.TopCrust},
		{l.accretion, params.Accretion},
	} {
		if err := restore.dst.SetBytes(restore.raw); err != nil {
			return nil, err
		}
	}
	copy(l.TopPlateMap, params.TopPlateMap)
	copy(l.PlateCount, params.PlateCount)

	for _, pp := range params.Plates {
		c, err := crust.FromBytes(n, pp.Crust)
		if err != nil {
			return nil, fmt.Errorf("plate %d: %w", pp.ID, err)
		}
		if len(pp.Mask) != n {
			return nil, fmt.Errorf("%w: plate %d mask", ErrGridMismatch, pp.ID)
		}
		plate := NewPlate(pp.ID, grid, c, append([]bool(nil), pp.Mask...))
		plate.EulerPole = pp.EulerPole
		plate.AngularSpeed = pp.AngularSpeed
		plate.Rotation = pp.Rotation
		if plate.Rotation != 0 {
			plate.remap()
		}
		plate.SetDependencies(l.deps)
		l.Plates = append(l.Plates, plate)
	}
	return l, nil
}
