package crust

// Pool identifies one of the eight quantities stored per cell
type Pool int

// The five conserved pools come first so that they occupy one contiguous
// region of a Crust's backing buffer.
const (
	Sediment Pool = iota
	Sedimentary
	Metamorphic
	FelsicPlutonic
	FelsicVolcanic
	MaficVolcanic
	MaficPlutonic
	Age

	PoolCount = int(Age) + 1
)

var poolNames = [PoolCount]string{
	"sediment",
	"sedimentary",
	"metamorphic",
	"felsic_plutonic",
	"felsic_volcanic",
	"mafic_volcanic",
	"mafic_plutonic",
	"age",
}

func (p Pool) String() string {
	if p < 0 || int(p) >= PoolCount {
		return "unknown"
	}
	return poolNames[p]
}

// Conserved reports whether p is felsic-derived mass that only deltas may change
func (p Pool) Conserved() bool {
	return p >= Sediment && p <= FelsicVolcanic
}

// Pool groupings
var (
	MassPools         = []Pool{Sediment, Sedimentary, Metamorphic, FelsicPlutonic, FelsicVolcanic, MaficVolcanic, MaficPlutonic}
	ConservedPools    = []Pool{Sediment, Sedimentary, Metamorphic, FelsicPlutonic, FelsicVolcanic}
	NonconservedPools = []Pool{MaficVolcanic, MaficPlutonic, Age}
	AllPools          = []Pool{Sediment, Sedimentary, Metamorphic, FelsicPlutonic, FelsicVolcanic, MaficVolcanic, MaficPlutonic, Age}
)

// RockColumn is the composition of a single cell. Masses are per unit area
// (kg/m²); Age is the age of the mafic component in seconds.
type RockColumn struct {
	Sediment       float64
	Sedimentary    float64
	Metamorphic    float64
	FelsicPlutonic float64
	FelsicVolcanic float64
	MaficVolcanic  float64
	MaficPlutonic  float64
	Age            float64
}

// Get returns the value of pool p
func (r RockColumn) Get(p Pool) float64 {
	switch p {
	case Sediment:
		return r.Sediment
	case Sedimentary:
		return r.Sedimentary
	case Metamorphic:
		return r.Metamorphic
	case FelsicPlutonic:
		return r.FelsicPlutonic
	case FelsicVolcanic:
		return r.FelsicVolcanic
	case MaficVolcanic:
		return r.MaficVolcanic
	case MaficPlutonic:
		return r.MaficPlutonic
	case Age:
		return r.Age
	}
	return 0
}

// Set assigns the value of pool p
func (r *RockColumn) Set(p Pool, v float64) {
	switch p {
	case Sediment:
		r.Sediment = v
	case Sedimentary:
		r.Sedimentary = v
	case Metamorphic:
		r.Metamorphic = v
	case FelsicPlutonic:
		r.FelsicPlutonic = v
	case FelsicVolcanic:
		r.FelsicVolcanic = v
	case MaficVolcanic:
		r.MaficVolcanic = v
	case MaficPlutonic:
		r.MaficPlutonic = v
	case Age:
		r.Age = v
	}
}

// ConservedMass sums the felsic-derived pools
func (r RockColumn) ConservedMass() float64 {
	return r.Sediment + r.Sedimentary + r.Metamorphic + r.FelsicPlutonic + r.FelsicVolcanic
}

// TotalMass sums all seven mass pools
func (r RockColumn) TotalMass() float64 {
	return r.ConservedMass() + r.MaficVolcanic + r.MaficPlutonic
}
