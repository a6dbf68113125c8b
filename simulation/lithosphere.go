// Package simulation advances the lithosphere: a roster of rigid plates whose
// crust is weathered, eroded, lithified, metamorphosed, rifted and subducted
// every step.
//
// A step runs in two phases. CalcChanges reads the current surface and
// computes one global crust delta; ApplyChanges commits it to the plates,
// moves them, and rebuilds the global composite. Both phases are
// single-threaded and deterministic for a given roster order.
package simulation

import (
	"math"
	"math/rand"

	"tectonics/core"
	"tectonics/crust"
	"tectonics/processes"
	"tectonics/scratch"
)

// NoPlate marks cells of TopPlateMap that no plate occupies
const NoPlate = -1

// Options are the lithosphere's own tunables, as opposed to Dependencies
// which describe the surrounding world
type Options struct {
	PlateCount int
	Seed       int64

	// SupercontinentCycleMean is the mean time between re-partitions, in seconds
	SupercontinentCycleMean float64
	// PerceivableFrames is how many frames a viewer watches a cycle for; see
	// MaxPerceivableDuration
	PerceivableFrames float64

	Rates processes.Rates

	// RiftingCrust is the juvenile crust that fills newly rifted cells
	RiftingCrust crust.RockColumn

	// IsostaticDatum in meters is subtracted from isostatic freeboard
	IsostaticDatum float64
	// DrivingStress in Pa over mantle viscosity sets plate angular speeds
	DrivingStress float64
}

// DefaultOptions returns Earth-like options
func DefaultOptions() Options {
	return Options{
		PlateCount:              7,
		Seed:                    1,
		SupercontinentCycleMean: 500 * crust.MegaYear,
		PerceivableFrames:       30 * 60,
		Rates:                   processes.DefaultRates(),
		RiftingCrust:            crust.RockColumn{MaficVolcanic: 7100 * 2890},
		IsostaticDatum:          3600,
		DrivingStress:           2.5e5,
	}
}

// MaxPerceivableDuration is the longest span of simulated time a viewer can
// follow when every frame advances the world by seconds
func (o Options) MaxPerceivableDuration(seconds float64) float64 {
	return seconds * o.PerceivableFrames
}

// Lithosphere owns the plates and the global composite of their crust
type Lithosphere struct {
	// TotalCrust stacks the conserved pools of every plate present in a cell;
	// its nonconserved pools come from the topmost plate
	TotalCrust *crust.Crust
	// TopCrust is the crust of whichever plate is on top of each cell
	TopCrust *crust.Crust

	Plates []*Plate
	// TopPlateMap holds the roster index of each cell's topmost plate
	TopPlateMap []int
	// PlateCount holds how many plates occupy each cell
	PlateCount []int

	Cycle *SupercontinentCycle
	Time  float64

	grid        *core.Grid
	opts        Options
	deps        Dependencies
	pad         *scratch.Stack
	nextPlateID int
	pending     bool

	// rasters reused every step
	erosion       *crust.Crust
	weathering    *crust.Crust
	lithification *crust.Crust
	metamorphosis *crust.Crust
	accretion     *crust.Crust
	crustDelta    *crust.Crust
	crustScratch  *crust.Crust
	localScratch  *crust.Crust
	masterDensity []float64

	derived derivedFields
}

// NewLithosphere creates an empty lithosphere over grid. Call SetDependencies
// and Reset before stepping it.
func NewLithosphere(grid *core.Grid, opts Options) *Lithosphere {
	n := grid.VertexCount()
	l := &Lithosphere{
		TotalCrust:    crust.New(n),
		TopCrust:      crust.New(n),
		TopPlateMap:   make([]int, n),
		PlateCount:    make([]int, n),
		Cycle:         NewSupercontinentCycle(opts.SupercontinentCycleMean, opts.Seed),
		grid:          grid,
		opts:          opts,
		pad:           scratch.NewStack(16 * n),
		erosion:       crust.New(n),
		weathering:    crust.New(n),
		lithification: crust.New(n),
		metamorphosis: crust.New(n),
		accretion:     crust.New(n),
		crustDelta:    crust.New(n),
		crustScratch:  crust.New(n),
		localScratch:  crust.New(n),
		masterDensity: make([]float64, n),
	}
	l.derived.init(n)
	for i := range l.TopPlateMap {
		l.TopPlateMap[i] = NoPlate
	}
	return l
}

// Grid returns the grid every raster is laid over
func (l *Lithosphere) Grid() *core.Grid {
	return l.grid
}

// Options returns the options the lithosphere was created with
func (l *Lithosphere) Options() Options {
	return l.opts
}

// SetDependencies overlays the set fields of deps and passes them on to
// every plate
func (l *Lithosphere) SetDependencies(deps Dependencies) {
	l.deps = l.deps.merge(deps)
	for _, plate := range l.Plates {
		plate.SetDependencies(l.deps)
	}
	l.derived.invalidate()
}

// Reset discards all plates, takes initial as the new master crust and
// partitions it into plates
func (l *Lithosphere) Reset(initial *crust.Crust) error {
	if err := l.deps.Assert(); err != nil {
		return err
	}
	if initial.Len() != l.grid.VertexCount() {
		return ErrGridMismatch
	}
	l.TotalCrust.CopyFrom(initial)
	l.accretion.Reset()
	l.pending = false
	l.repartition()
	l.mergePlatesToMaster()
	l.derived.invalidate()
	return nil
}

// CalcChanges computes the crust delta for a step of the given length
// without committing it
func (l *Lithosphere) CalcChanges(seconds float64) error {
	if err := l.deps.Assert(); err != nil {
		return err
	}
	if l.skipStep(seconds) {
		return nil
	}
	l.calculateDeltas(seconds)
	l.pending = true
	return nil
}

// ApplyChanges commits the delta from CalcChanges, moves the plates and
// rebuilds the global composite
func (l *Lithosphere) ApplyChanges(seconds float64) error {
	if err := l.deps.Assert(); err != nil {
		return err
	}
	if l.skipStep(seconds) {
		// a skipped step consumes the pending delta
		l.pending = false
		return nil
	}

	if !l.pending {
		l.crustDelta.Reset()
	}
	l.integrateDeltas(seconds)
	l.pending = false

	for _, plate := range l.Plates {
		plate.Move(seconds)
	}

	if l.Cycle.Update(seconds) {
		l.repartition()
	}

	l.mergePlatesToMaster()
	l.derived.invalidate()

	l.riftPlates()
	l.subductPlates()

	l.Time += seconds
	logger.Debug("lithosphere stepped",
		"time_my", l.Time/crust.MegaYear,
		"step_my", seconds/crust.MegaYear,
		"plates", len(l.Plates))
	return nil
}

// Step runs both phases
func (l *Lithosphere) Step(seconds float64) error {
	if err := l.CalcChanges(seconds); err != nil {
		return err
	}
	return l.ApplyChanges(seconds)
}

// skipStep reports whether a step of this length is too short for the
// supercontinent cycle to be perceivable, in which case it is not run
func (l *Lithosphere) skipStep(seconds float64) bool {
	return l.Cycle.MeanDuration > l.opts.MaxPerceivableDuration(seconds)
}

// repartition replaces the roster with fresh plates cut from TotalCrust
func (l *Lithosphere) repartition() {
	rng := l.Cycle.Rand()
	n := l.grid.VertexCount()
	segments := Segment(l.grid, l.opts.PlateCount, rng)

	count := 0
	for _, s := range segments {
		count = max(count, s+1)
	}

	viscosity := l.deps.MaterialViscosity.Mantle
	plates := make([]*Plate, 0, count)
	for k := 0; k < count; k++ {
		mask := make([]bool, n)
		occupied := false
		for i, s := range segments {
			if s == k {
				mask[i] = true
				occupied = true
			}
		}
		if !occupied {
			continue
		}

		c := l.TotalCrust.Clone()
		c.ZeroWhereNot(mask)
		plate := NewPlate(l.nextPlateID, l.grid, c, mask)
		l.nextPlateID++
		plate.EulerPole = randomUnitVector(rng)
		if viscosity > 0 {
			plate.AngularSpeed = l.opts.DrivingStress / viscosity * (0.5 + rng.Float64())
		}
		plate.SetDependencies(l.deps)
		plates = append(plates, plate)
	}
	l.Plates = plates

	logger.Info("plates re-partitioned",
		"cycle", l.Cycle.Count,
		"plates", len(plates),
		"time_my", l.Time/crust.MegaYear)
}

func randomUnitVector(rng *rand.Rand) core.Vector3 {
	z := 2*rng.Float64() - 1
	theta := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return core.Vector3{X: r * math.Cos(theta), Y: z, Z: r * math.Sin(theta)}
}
