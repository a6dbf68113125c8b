package simulation

import (
	"math"
	"math/rand"
	"testing"

	"tectonics/core"
	"tectonics/crust"
	"tectonics/field"
)

// lithosphereWithPlates builds a lithosphere whose roster is exactly the
// given crusts and masks, already merged
func lithosphereWithPlates(t *testing.T, grid *core.Grid, crusts []*crust.Crust, masks [][]bool) *Lithosphere {
	t.Helper()
	l := NewLithosphere(grid, DefaultOptions())
	l.SetDependencies(testDependencies())
	for i := range crusts {
		plate := NewPlate(i, grid, crusts[i], masks[i])
		plate.SetDependencies(l.deps)
		l.Plates = append(l.Plates, plate)
	}
	l.mergePlatesToMaster()
	return l
}

func filled(n int, col crust.RockColumn, mask []bool) *crust.Crust {
	c := crust.New(n)
	c.FillWhere(col, mask)
	return c
}

func everywhere(n int) []bool {
	m := make([]bool, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// northernCap marks vertices above the given height on the polar axis
func northernCap(grid *core.Grid, above float64) []bool {
	m := make([]bool, grid.VertexCount())
	for i, p := range grid.Positions {
		m[i] = p.Y > above
	}
	return m
}

func TestRanksAbove(t *testing.T) {
	tests := []struct {
		name        string
		density     float64
		index       int
		bestDensity float64
		best        int
		want        bool
	}{
		{"first plate", 3000, 4, math.Inf(1), NoPlate, true},
		{"lighter wins", 2700, 3, 2800, 1, true},
		{"denser loses", 2900, 0, 2800, 1, false},
		{"tie goes to earlier roster index", 2800, 0, 2800, 1, true},
		{"tie against earlier plate loses", 2800, 2, 2800, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ranksAbove(tt.density, tt.index, tt.bestDensity, tt.best); got != tt.want {
				t.Errorf("ranksAbove() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeEqualDensityTie(t *testing.T) {
	grid := core.Icosphere(1)
	n := grid.VertexCount()
	col := crust.RockColumn{FelsicPlutonic: 1000, MaficVolcanic: 2000, Age: 7}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, col, everywhere(n)), filled(n, col, everywhere(n))},
		[][]bool{everywhere(n), everywhere(n)})

	for g := 0; g < n; g++ {
		if l.TopPlateMap[g] != 0 {
			t.Fatalf("cell %d: top plate %d, want the earlier plate 0", g, l.TopPlateMap[g])
		}
		if l.PlateCount[g] != 2 {
			t.Fatalf("cell %d: plate count %d, want 2", g, l.PlateCount[g])
		}
		got := l.TotalCrust.Column(g)
		// conserved pools stack, nonconserved pools come from the top plate
		want := crust.RockColumn{FelsicPlutonic: 2000, MaficVolcanic: 2000, Age: 7}
		if got != want {
			t.Fatalf("cell %d total = %+v, want %+v", g, got, want)
		}
	}
}

func TestMergeLighterPlateOnTop(t *testing.T) {
	grid := core.Icosphere(1)
	n := grid.VertexCount()
	polar := northernCap(grid, 0)
	dense := crust.RockColumn{MaficVolcanic: 3300 * 7000, Age: crust.MaficSolidificationWindow}
	light := crust.RockColumn{FelsicPlutonic: 2600 * 30000}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, dense, everywhere(n)), filled(n, light, polar)},
		[][]bool{everywhere(n), polar})

	for g := 0; g < n; g++ {
		want := 0
		if polar[g] {
			want = 1
		}
		if l.TopPlateMap[g] != want {
			t.Errorf("cell %d: top plate %d, want %d", g, l.TopPlateMap[g], want)
		}
		if polar[g] && l.TopCrust.Column(g) != light {
			t.Errorf("cell %d: top crust %+v, want the light plate's", g, l.TopCrust.Column(g))
		}
	}
}

func TestMergeLeavesUncoveredCellsEmpty(t *testing.T) {
	grid := core.Icosphere(1)
	n := grid.VertexCount()
	polar := northernCap(grid, 0.5)
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, crust.RockColumn{Sediment: 1}, polar)},
		[][]bool{polar})
	for g := 0; g < n; g++ {
		if polar[g] {
			continue
		}
		if l.TopPlateMap[g] != NoPlate || l.PlateCount[g] != 0 {
			t.Errorf("cell %d: top %d count %d", g, l.TopPlateMap[g], l.PlateCount[g])
		}
		if l.TotalCrust.Column(g) != (crust.RockColumn{}) {
			t.Errorf("cell %d has crust %+v", g, l.TotalCrust.Column(g))
		}
	}
}

func TestRiftFillsMargin(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	polar := northernCap(grid, 0)
	col := crust.RockColumn{FelsicPlutonic: 1e7}
	l := lithosphereWithPlates(t, grid, []*crust.Crust{filled(n, col, polar)}, [][]bool{append([]bool(nil), polar...)})

	margin := make([]bool, n)
	field.Margin(grid, margin, polar)

	l.riftPlates()

	plate := l.Plates[0]
	for i := 0; i < n; i++ {
		switch {
		case polar[i]:
			if !plate.Mask[i] || plate.Crust.Column(i) != col {
				t.Fatalf("cell %d inside the plate changed", i)
			}
		case margin[i]:
			if !plate.Mask[i] {
				t.Fatalf("margin cell %d did not rift", i)
			}
			if plate.Crust.Column(i) != l.opts.RiftingCrust {
				t.Fatalf("margin cell %d crust = %+v, want rifting crust", i, plate.Crust.Column(i))
			}
		default:
			if plate.Mask[i] {
				t.Fatalf("cell %d beyond the margin rifted", i)
			}
		}
	}
}

func TestRiftStopsAtOtherPlates(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	north := northernCap(grid, 0)
	south := make([]bool, n)
	for i := range south {
		south[i] = !north[i]
	}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, crust.RockColumn{Sediment: 1}, north), filled(n, crust.RockColumn{Sediment: 1}, south)},
		[][]bool{append([]bool(nil), north...), append([]bool(nil), south...)})

	l.riftPlates()

	// the two plates tile the sphere so there is nowhere to rift into
	if got := l.Plates[0].Area(); got != field.Count(north) {
		t.Errorf("north plate grew to %d cells from %d", got, field.Count(north))
	}
	if got := l.Plates[1].Area(); got != field.Count(south) {
		t.Errorf("south plate grew to %d cells from %d", got, field.Count(south))
	}
}

func TestSubductDetachesOverriddenEdge(t *testing.T) {
	grid := core.Icosphere(3)
	n := grid.VertexCount()
	polar := northernCap(grid, 0.3)

	light := crust.RockColumn{FelsicPlutonic: 2600 * 30000}
	sediment := 1000.0
	dense := crust.RockColumn{Sediment: sediment, MaficVolcanic: 3300 * 7000, Age: crust.MaficSolidificationWindow}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, light, polar), filled(n, dense, polar)},
		[][]bool{append([]bool(nil), polar...), append([]bool(nil), polar...)})

	edge := make([]bool, n)
	field.Padding(grid, edge, polar)
	edgeCells := field.Count(edge)
	if edgeCells == 0 {
		t.Fatal("test polar has no edge")
	}

	l.subductPlates()

	overriding, sinking := l.Plates[0], l.Plates[1]
	for i := 0; i < n; i++ {
		switch {
		case edge[i]:
			if sinking.Mask[i] {
				t.Fatalf("edge cell %d did not detach", i)
			}
			if sinking.Crust.Column(i) != (crust.RockColumn{}) {
				t.Fatalf("detached cell %d still holds %+v", i, sinking.Crust.Column(i))
			}
		case polar[i]:
			if !sinking.Mask[i] {
				t.Fatalf("interior cell %d detached", i)
			}
			got := sinking.Crust.Column(i)
			if got.Sediment != 0 || got.Metamorphic != sediment {
				t.Fatalf("overridden cell %d not metamorphosed: %+v", i, got)
			}
		}
	}
	if overriding.Area() != field.Count(polar) {
		t.Errorf("overriding plate lost cells")
	}

	accreted := field.Sum(l.accretion.FelsicPlutonic) + field.Sum(l.accretion.FelsicVolcanic)
	want := sediment * float64(edgeCells)
	if math.Abs(accreted-want) > 1e-6*want {
		t.Errorf("accreted %v, want %v", accreted, want)
	}
	if ratio := field.Sum(l.accretion.FelsicPlutonic) / accreted; math.Abs(ratio-accretedPlutonicFraction) > 1e-9 {
		t.Errorf("plutonic share = %v, want %v", ratio, accretedPlutonicFraction)
	}
}

func TestSubductSparesBuoyantCrust(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	polar := northernCap(grid, 0.3)
	lighter := crust.RockColumn{FelsicPlutonic: 2500 * 30000}
	light := crust.RockColumn{FelsicPlutonic: 2600 * 30000}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, lighter, polar), filled(n, light, polar)},
		[][]bool{append([]bool(nil), polar...), append([]bool(nil), polar...)})

	l.subductPlates()

	if l.Plates[1].Area() != field.Count(polar) {
		t.Errorf("buoyant plate lost %d cells", field.Count(polar)-l.Plates[1].Area())
	}
	if field.Sum(l.accretion.ConservedArray) != 0 {
		t.Errorf("accretion = %v, want none", field.Sum(l.accretion.ConservedArray))
	}
}

func TestSubductKeepsCellsOverOpenMantle(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	polar := northernCap(grid, 0.3)
	dense := crust.RockColumn{FelsicPlutonic: 1000, MaficVolcanic: 3300 * 7000, Age: crust.MaficSolidificationWindow}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, dense, polar)},
		[][]bool{append([]bool(nil), polar...)})

	// local cells sit over the antipodes, where no plate is on top, while the
	// global map still places the plate over the cap
	plate := l.Plates[0]
	for c, pos := range grid.Positions {
		plate.GlobalIDsOfLocalCells[c] = grid.NearestID(pos.Scale(-1), -1)
	}
	before := field.Sum(plate.Crust.ConservedArray)

	l.subductPlates()

	if plate.Area() != field.Count(polar) {
		t.Errorf("plate lost %d cells with nowhere to accrete them", field.Count(polar)-plate.Area())
	}
	after := field.Sum(plate.Crust.ConservedArray) + field.Sum(l.accretion.ConservedArray)
	if math.Abs(after-before) > 1e-9*before {
		t.Errorf("conserved mass went from %v to %v", before, after)
	}
}

func TestIntegrateDeltasResamplesIntoPlates(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, crust.RockColumn{FelsicPlutonic: 100}, everywhere(n))},
		[][]bool{everywhere(n)})
	plate := l.Plates[0]
	plate.EulerPole = core.Vector3{X: 1, Y: 1}.Normalize()
	plate.Rotation = 0.3
	plate.remap()
	l.mergePlatesToMaster()

	rng := rand.New(rand.NewSource(2))
	for g := range l.crustDelta.Sediment {
		l.crustDelta.Sediment[g] = rng.Float64()
	}
	beforePlate := field.Sum(plate.Crust.Sediment)
	beforeTotal := field.Sum(l.TotalCrust.Sediment)

	l.integrateDeltas(crust.MegaYear)

	added := field.Sum(l.crustDelta.Sediment)
	if got := field.Sum(plate.Crust.Sediment) - beforePlate; math.Abs(got-added) > 1e-9 {
		t.Errorf("plate gained %v sediment, want %v", got, added)
	}
	if got := field.Sum(l.TotalCrust.Sediment) - beforeTotal; math.Abs(got-added) > 1e-9 {
		t.Errorf("total gained %v sediment, want %v", got, added)
	}
	for i, age := range plate.Crust.Age {
		if age != crust.MegaYear {
			t.Fatalf("local cell %d age = %v, want one megayear", i, age)
		}
	}
}

func TestIntegrateDeltasOnlyFeedsTopPlate(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	polar := northernCap(grid, 0.5)
	ocean := crust.RockColumn{MaficVolcanic: 7100 * 2890}
	continent := crust.RockColumn{FelsicPlutonic: 1e5}
	l := lithosphereWithPlates(t, grid,
		[]*crust.Crust{filled(n, ocean, everywhere(n)), filled(n, continent, polar)},
		[][]bool{everywhere(n), polar})

	for g, inCap := range polar {
		want := 0
		if inCap {
			want = 1
		}
		if l.TopPlateMap[g] != want {
			t.Fatalf("cell %d top plate = %d, want %d", g, l.TopPlateMap[g], want)
		}
	}

	field.Fill(l.crustDelta.Sediment, 1)
	l.integrateDeltas(crust.MegaYear)

	lower, upper := l.Plates[0], l.Plates[1]
	for g, inCap := range polar {
		wantLower, wantUpper := 1.0, 0.0
		if inCap {
			wantLower, wantUpper = 0, 1
		}
		if lower.Crust.Sediment[g] != wantLower {
			t.Errorf("lower plate sediment at %d = %v, want %v", g, lower.Crust.Sediment[g], wantLower)
		}
		if upper.Crust.Sediment[g] != wantUpper {
			t.Errorf("upper plate sediment at %d = %v, want %v", g, upper.Crust.Sediment[g], wantUpper)
		}
	}
}

func TestPlateMove(t *testing.T) {
	grid := core.Icosphere(3)
	n := grid.VertexCount()
	plate := NewPlate(0, grid, crust.New(n), everywhere(n))
	plate.EulerPole = core.Vector3{Y: 1}
	plate.AngularSpeed = 1e-15

	plate.Move(0)
	for g, l := range plate.LocalIDsOfGlobalCells {
		if g != l {
			t.Fatalf("zero-length move changed the id map at %d", g)
		}
	}

	plate.Move(2 * math.Pi / plate.AngularSpeed * 1.25)
	if math.Abs(plate.Rotation-math.Pi/2) > 1e-9 {
		t.Errorf("rotation = %v, want pi/2 after wrapping", plate.Rotation)
	}
	for g, local := range plate.LocalIDsOfGlobalCells {
		want := grid.NearestID(grid.Positions[g].Rotate(plate.EulerPole, -plate.Rotation), -1)
		if local != want {
			d1 := grid.Positions[local].DistanceSquared(grid.Positions[g].Rotate(plate.EulerPole, -plate.Rotation))
			d2 := grid.Positions[want].DistanceSquared(grid.Positions[g].Rotate(plate.EulerPole, -plate.Rotation))
			if math.Abs(d1-d2) > 1e-12 {
				t.Fatalf("global %d maps to local %d, want %d", g, local, want)
			}
		}
	}
}

func TestSegment(t *testing.T) {
	grid := core.Icosphere(2)
	n := grid.VertexCount()
	for _, count := range []int{1, 3, 7, 20} {
		segments := Segment(grid, count, rand.New(rand.NewSource(int64(count))))
		sizes := make([]int, count)
		for i, s := range segments {
			if s < 0 || s >= count {
				t.Fatalf("count %d: vertex %d in region %d", count, i, s)
			}
			sizes[s]++
		}
		for k, size := range sizes {
			if size == 0 {
				t.Errorf("count %d: region %d is empty", count, k)
			}
		}
		// every region is connected
		for k := 0; k < count; k++ {
			if reached := floodRegion(grid, segments, k); reached != sizes[k] {
				t.Errorf("count %d: region %d has %d cells but only %d are connected", count, k, sizes[k], reached)
			}
		}
	}

	a := Segment(grid, 5, rand.New(rand.NewSource(9)))
	b := Segment(grid, 5, rand.New(rand.NewSource(9)))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			t.Fatal("Segment is not deterministic")
		}
	}
	if got := Segment(grid, 10*n, rand.New(rand.NewSource(1))); len(got) != n {
		t.Errorf("oversized count returned %d labels", len(got))
	}
}

func floodRegion(grid *core.Grid, segments []int, k int) int {
	start := -1
	for i, s := range segments {
		if s == k {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	seen := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, nb := range grid.Neighbors[current] {
			if segments[nb] == k && !seen[nb] {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return len(seen)
}

func TestSupercontinentCycle(t *testing.T) {
	mean := 100.0
	a := NewSupercontinentCycle(mean, 3)
	b := NewSupercontinentCycle(mean, 3)

	ends := 0
	for i := 0; i < 1000; i++ {
		if a.Duration < 0.5*mean || a.Duration >= 1.5*mean {
			t.Fatalf("cycle %d duration %v outside [0.5, 1.5) x mean", a.Count, a.Duration)
		}
		endA, endB := a.Update(1), b.Update(1)
		if endA != endB || *a != *b {
			t.Fatal("cycles with the same seed diverged")
		}
		if endA {
			ends++
			if a.Phase != 0 {
				t.Fatalf("phase %v after a cycle ended", a.Phase)
			}
		}
	}
	if ends != a.Count || ends < 6 || ends > 20 {
		t.Errorf("%d cycles over 10 mean durations (count %d)", ends, a.Count)
	}
}

func TestSeedCrust(t *testing.T) {
	grid := core.Icosphere(3)
	opts := DefaultOptions()
	a := SeedCrust(grid, opts, 1)
	b := SeedCrust(grid, opts, 2)

	continental := 0
	for i := 0; i < grid.VertexCount(); i++ {
		col := a.Column(i)
		if col.MaficVolcanic != opts.RiftingCrust.MaficVolcanic {
			t.Fatalf("cell %d lacks ocean crust: %+v", i, col)
		}
		if col.FelsicPlutonic > 0 {
			continental++
			if col.FelsicPlutonic+col.FelsicVolcanic > ContinentalMass*(1+1e-12) {
				t.Fatalf("cell %d holds more than a continent: %+v", i, col)
			}
		}
	}
	if continental == 0 || continental == grid.VertexCount() {
		t.Errorf("%d of %d cells are continental", continental, grid.VertexCount())
	}

	differs := false
	for i := range a.FelsicPlutonic {
		if a.FelsicPlutonic[i] != b.FelsicPlutonic[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("different seeds produced the same continents")
	}
}
