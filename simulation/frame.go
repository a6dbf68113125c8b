package simulation

import (
	"tectonics/crust"
	"tectonics/field"
)

// Frame is a compact picture of the lithosphere after a step, for viewers
type Frame struct {
	Time          float64            `json:"time"`
	Cycle         int                `json:"cycle"`
	Plates        int                `json:"plates"`
	TopPlate      []int              `json:"topPlate"`
	SurfaceHeight []float64          `json:"surfaceHeight"`
	Budget        map[string]float64 `json:"budget"`
}

// Frame captures the current state. The returned slices are copies.
func (l *Lithosphere) Frame() (Frame, error) {
	if err := l.deps.Assert(); err != nil {
		return Frame{}, err
	}
	return Frame{
		Time:          l.Time,
		Cycle:         l.Cycle.Count,
		Plates:        len(l.Plates),
		TopPlate:      append([]int(nil), l.TopPlateMap...),
		SurfaceHeight: append([]float64(nil), l.SurfaceHeight()...),
		Budget:        Budget(l.TotalCrust),
	}, nil
}

// Budget sums every mass pool of c over the whole grid, keyed by pool name
func Budget(c *crust.Crust) map[string]float64 {
	budget := make(map[string]float64, len(crust.MassPools))
	for _, p := range crust.MassPools {
		budget[p.String()] = field.Sum(c.Pool(p))
	}
	return budget
}
