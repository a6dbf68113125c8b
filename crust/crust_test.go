package crust

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"tectonics/field"
	"tectonics/scratch"
)

const epsilon = 1e-9

func randomCrust(rng *rand.Rand, n int) *Crust {
	c := New(n)
	for i := range c.Everything {
		c.Everything[i] = rng.Float64() * 1000
	}
	return c
}

func TestPoolLayout(t *testing.T) {
	c := New(3)
	if len(c.Everything) != PoolCount*3 {
		t.Fatalf("Everything has %d values", len(c.Everything))
	}
	if len(c.ConservedArray) != 5*3 {
		t.Fatalf("ConservedArray has %d values", len(c.ConservedArray))
	}
	c.SetColumn(1, RockColumn{Sediment: 1, FelsicVolcanic: 5, MaficVolcanic: 6, Age: 8})
	if c.Everything[0*3+1] != 1 || c.Everything[4*3+1] != 5 || c.Everything[5*3+1] != 6 || c.Everything[7*3+1] != 8 {
		t.Errorf("pools not laid out in order: %v", c.Everything)
	}
	if c.ConservedArray[4*3+1] != 5 {
		t.Errorf("ConservedArray does not alias the first five pools")
	}
	if got := c.Column(1); got.FelsicVolcanic != 5 || got.Age != 8 {
		t.Errorf("Column(1) = %+v", got)
	}

	// appending to a pool must not spill into the next one
	_ = append(c.Sediment, 99)
	if c.Sedimentary[0] != 0 {
		t.Error("pool slice capacity leaks into the next pool")
	}
}

func TestMassIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := randomCrust(rng, 50)
	total := c.TotalMass(make([]float64, 50))
	conserved := c.ConservedMass(make([]float64, 50))
	for i := 0; i < 50; i++ {
		want := conserved[i] + c.MaficVolcanic[i] + c.MaficPlutonic[i]
		if math.Abs(total[i]-want) > epsilon {
			t.Fatalf("cell %d: total %v != conserved+mafic %v", i, total[i], want)
		}
		col := c.Column(i)
		if math.Abs(col.TotalMass()-total[i]) > epsilon || math.Abs(col.ConservedMass()-conserved[i]) > epsilon {
			t.Fatalf("cell %d: column masses disagree with raster masses", i)
		}
	}
}

func TestThicknessAndMaficRamp(t *testing.T) {
	material := EarthMaterialDensity()
	tests := []struct {
		name string
		col  RockColumn
		want float64
	}{
		{"empty", RockColumn{}, 0},
		{"granite", RockColumn{FelsicPlutonic: 2600 * 1000}, 1000},
		{"young basalt", RockColumn{MaficVolcanic: 2890 * 7000}, 7000},
		{"old basalt", RockColumn{MaficVolcanic: 3300 * 7000, Age: MaficSolidificationWindow}, 7000},
		{"half-aged basalt", RockColumn{MaficPlutonic: 3095 * 100, Age: MaficSolidificationWindow / 2}, 100},
		{"past the window", RockColumn{MaficPlutonic: 3300, Age: 10 * MaficSolidificationWindow}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(1)
			c.SetColumn(0, tt.col)
			got := c.Thickness(material, make([]float64, 1))[0]
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Thickness = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDensityAndBuoyancy(t *testing.T) {
	mass := []float64{2600, 0, 3400}
	thickness := []float64{1, 0, 1}
	density := Density(mass, thickness, 3300, make([]float64, 3))
	want := []float64{2600, 3300, 3400}
	for i := range want {
		if density[i] != want[i] {
			t.Fatalf("Density = %v, want %v", density, want)
		}
	}
	buoyancy := Buoyancy(density, 3300, 10, make([]float64, 3))
	wantB := []float64{-7000, 0, 0}
	for i := range wantB {
		if math.Abs(buoyancy[i]-wantB[i]) > epsilon {
			t.Errorf("Buoyancy = %v, want %v", buoyancy, wantB)
		}
	}
}

func TestFixDelta(t *testing.T) {
	pad := scratch.NewStack(0)
	rng := rand.New(rand.NewSource(3))
	const n = 64

	for trial := 0; trial < 20; trial++ {
		c := randomCrust(rng, n)
		delta := New(n)
		for _, p := range ConservedPools {
			d := delta.Pool(p)
			// a zero-sum transport that overdraws some cells
			for i := range d {
				d[i] = (rng.Float64() - 0.5) * 3000
			}
			mean := field.Sum(d) / n
			field.AddConst(d, -mean)
		}
		before := make(map[Pool]float64)
		for _, p := range ConservedPools {
			before[p] = field.Sum(delta.Pool(p))
		}

		FixDelta(delta, c, pad)

		for _, p := range ConservedPools {
			if got := field.Sum(delta.Pool(p)); math.Abs(got-before[p]) > 1e-6 {
				t.Errorf("trial %d %s: delta sum %v, want %v", trial, p, got, before[p])
			}
			q, d := c.Pool(p), delta.Pool(p)
			for i := range q {
				if q[i]+d[i] < -1e-9 {
					t.Fatalf("trial %d %s cell %d: %v + %v is negative", trial, p, i, q[i], d[i])
				}
			}
		}
		if pad.Depth() != 0 {
			t.Fatalf("FixDelta left %d checkpoints open", pad.Depth())
		}
	}
}

func TestFixDeltaLeavesValidDeltaAlone(t *testing.T) {
	pad := scratch.NewStack(0)
	c := New(2)
	c.Fill(RockColumn{Sediment: 10})
	delta := New(2)
	delta.Sediment[0], delta.Sediment[1] = -5, 5
	FixDelta(delta, c, pad)
	if delta.Sediment[0] != -5 || delta.Sediment[1] != 5 {
		t.Errorf("delta changed: %v", delta.Sediment)
	}
}

func TestFixDeltaGlobalOverdraw(t *testing.T) {
	pad := scratch.NewStack(0)
	c := New(2)
	c.Fill(RockColumn{Metamorphic: 1})
	delta := New(2)
	delta.Metamorphic[0] = -10
	FixDelta(delta, c, pad)
	for i := range c.Metamorphic {
		if got := c.Metamorphic[i] + delta.Metamorphic[i]; math.Abs(got) > epsilon {
			t.Errorf("cell %d ends at %v, want drained to 0", i, got)
		}
	}
}

func TestOverlap(t *testing.T) {
	lower := New(3)
	lower.Fill(RockColumn{Sediment: 1, FelsicPlutonic: 2, MaficVolcanic: 3, Age: 4})
	upper := New(3)
	upper.Fill(RockColumn{Sediment: 10, FelsicPlutonic: 20, MaficVolcanic: 30, Age: 40})

	exists := []bool{true, true, false}
	onTop := []bool{true, false, false}
	result := New(3)
	Overlap(lower, upper, exists, onTop, result)

	want := []RockColumn{
		{Sediment: 11, FelsicPlutonic: 22, MaficVolcanic: 30, Age: 40},
		{Sediment: 11, FelsicPlutonic: 22, MaficVolcanic: 3, Age: 4},
		{Sediment: 1, FelsicPlutonic: 2, MaficVolcanic: 3, Age: 4},
	}
	for i := range want {
		if got := result.Column(i); got != want[i] {
			t.Errorf("cell %d = %+v, want %+v", i, got, want[i])
		}
	}

	// aliasing the result with the lower crust gives the same answer
	Overlap(lower, upper, exists, onTop, lower)
	for i := range want {
		if got := lower.Column(i); got != want[i] {
			t.Errorf("aliased cell %d = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	c := randomCrust(rng, 7)
	c.Sediment[3] = math.Inf(1)
	back, err := FromBytes(7, c.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range c.Everything {
		if back.Everything[i] != v {
			t.Fatalf("value %d = %v, want %v", i, back.Everything[i], v)
		}
	}
	if _, err := FromBytes(8, c.Bytes()); !errors.Is(err, ErrBufferSize) {
		t.Errorf("FromBytes with wrong length: error = %v, want ErrBufferSize", err)
	}
}

func TestConservationPredicates(t *testing.T) {
	transport := New(2)
	transport.Sediment[0], transport.Sediment[1] = -3, 3
	reaction := New(2)
	reaction.Sediment[0], reaction.Sedimentary[0] = -3, 3
	creation := New(2)
	creation.FelsicVolcanic[1] = 1

	tests := []struct {
		name                           string
		delta                          *Crust
		conserved, transported, reacts bool
	}{
		{"transport", transport, true, true, false},
		{"reaction", reaction, true, false, true},
		{"creation", creation, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConservedDelta(tt.delta, 1e-9); got != tt.conserved {
				t.Errorf("IsConservedDelta = %v", got)
			}
			if got := IsConservedTransportDelta(tt.delta, 1e-9); got != tt.transported {
				t.Errorf("IsConservedTransportDelta = %v", got)
			}
			if got := IsConservedReactionDelta(tt.delta, 1e-9); got != tt.reacts {
				t.Errorf("IsConservedReactionDelta = %v", got)
			}
		})
	}
}

func TestClampMass(t *testing.T) {
	c := New(1)
	c.SetColumn(0, RockColumn{Sediment: -1, MaficPlutonic: -2, Age: -3})
	c.ClampMass()
	if got := c.Column(0); got.Sediment != 0 || got.MaficPlutonic != 0 || got.Age != -3 {
		t.Errorf("ClampMass = %+v", got)
	}
}

func TestMultFieldMasksEveryPool(t *testing.T) {
	c := New(3)
	col := RockColumn{Sediment: 1, Metamorphic: 2, MaficVolcanic: 3, Age: 4}
	c.Fill(col)
	c.MultField([]float64{1, 0, 0.5})

	tests := []struct {
		cell int
		want RockColumn
	}{
		{0, col},
		{1, RockColumn{}},
		{2, RockColumn{Sediment: 0.5, Metamorphic: 1, MaficVolcanic: 1.5, Age: 2}},
	}
	for _, tt := range tests {
		if got := c.Column(tt.cell); got != tt.want {
			t.Errorf("cell %d = %+v, want %+v", tt.cell, got, tt.want)
		}
	}
}
