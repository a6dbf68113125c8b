package core

import (
	"math"
	"sort"
)

// Grid is the spatial mesh every raster in the simulation is laid over.
// Vertex ids index Positions; Neighbors[i] is sorted so that iteration order
// and therefore every derived result is deterministic.
type Grid struct {
	Positions []Vector3
	Triangles []int32
	Neighbors [][]int

	// Arrows are directed edges (from, to), one per ordered neighbor pair,
	// grouped by source vertex in ascending order.
	Arrows         [][2]int
	ArrowDistances []float64
}

// NewGrid builds adjacency from a triangle list
func NewGrid(positions []Vector3, triangles []int32) *Grid {
	// Use a set to avoid duplicates
	neighborSets := make([]map[int]bool, len(positions))
	for i := range neighborSets {
		neighborSets[i] = make(map[int]bool)
	}

	// Each vertex in a triangle is a neighbor of the other two
	for i := 0; i+2 < len(triangles); i += 3 {
		v0 := int(triangles[i])
		v1 := int(triangles[i+1])
		v2 := int(triangles[i+2])

		neighborSets[v0][v1] = true
		neighborSets[v0][v2] = true
		neighborSets[v1][v0] = true
		neighborSets[v1][v2] = true
		neighborSets[v2][v0] = true
		neighborSets[v2][v1] = true
	}

	neighbors := make([][]int, len(positions))
	for i, set := range neighborSets {
		list := make([]int, 0, len(set))
		for n := range set {
			list = append(list, n)
		}
		neighbors[i] = list
	}

	g := NewGridFromNeighbors(positions, neighbors)
	g.Triangles = triangles
	return g
}

// NewGridFromNeighbors builds a grid from explicit adjacency. Neighbor lists
// are copied, sorted and deduplicated; self references are dropped.
func NewGridFromNeighbors(positions []Vector3, neighbors [][]int) *Grid {
	g := &Grid{
		Positions: positions,
		Neighbors: make([][]int, len(positions)),
	}
	for i := range positions {
		var list []int
		if i < len(neighbors) {
			list = append(list, neighbors[i]...)
		}
		sort.Ints(list)
		unique := list[:0]
		for j, n := range list {
			if n == i || (j > 0 && n == list[j-1]) {
				continue
			}
			unique = append(unique, n)
		}
		g.Neighbors[i] = unique
	}

	for from, list := range g.Neighbors {
		for _, to := range list {
			g.Arrows = append(g.Arrows, [2]int{from, to})
			g.ArrowDistances = append(g.ArrowDistances, math.Sqrt(positions[from].DistanceSquared(positions[to])))
		}
	}
	return g
}

// VertexCount returns the number of cells in every raster over this grid
func (g *Grid) VertexCount() int {
	return len(g.Positions)
}

// NeighborCount returns the number of neighbors of vertex i
func (g *Grid) NeighborCount(i int) int {
	return len(g.Neighbors[i])
}

// NearestID returns the vertex closest to p. The search walks downhill over
// neighbors starting from hint, which is exact on Delaunay-like meshes such
// as the icosphere; a negative hint falls back to a full scan.
func (g *Grid) NearestID(p Vector3, hint int) int {
	if len(g.Positions) == 0 {
		return -1
	}
	if hint < 0 || hint >= len(g.Positions) {
		best, bestDist := 0, math.Inf(1)
		for i, q := range g.Positions {
			if d := p.DistanceSquared(q); d < bestDist {
				best, bestDist = i, d
			}
		}
		return best
	}

	current := hint
	currentDist := p.DistanceSquared(g.Positions[current])
	for {
		next, nextDist := current, currentDist
		for _, n := range g.Neighbors[current] {
			if d := p.DistanceSquared(g.Positions[n]); d < nextDist {
				next, nextDist = n, d
			}
		}
		if next == current {
			return current
		}
		current, currentDist = next, nextDist
	}
}

// Icosphere generates a unit icosphere grid
func Icosphere(subdivisions int) *Grid {
	// Golden ratio
	t := (1.0 + math.Sqrt(5.0)) / 2.0

	// Initial icosahedron vertices
	positions := []Vector3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}

	// Initial icosahedron faces
	indices := []int32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}

	for i := range positions {
		positions[i] = positions[i].Normalize()
	}

	for i := 0; i < subdivisions; i++ {
		positions, indices = subdivide(positions, indices)
	}

	return NewGrid(positions, indices)
}

func subdivide(positions []Vector3, indices []int32) ([]Vector3, []int32) {
	midpoints := make(map[[2]int32]int32)
	newPositions := make([]Vector3, len(positions), len(positions)*4)
	copy(newPositions, positions)
	newIndices := make([]int32, 0, len(indices)*4)

	getMidpoint := func(i1, i2 int32) int32 {
		key := [2]int32{i1, i2}
		if i1 > i2 {
			key = [2]int32{i2, i1}
		}
		if mid, exists := midpoints[key]; exists {
			return mid
		}

		mid := positions[i1].Add(positions[i2]).Scale(0.5).Normalize()
		newPositions = append(newPositions, mid)
		midpoints[key] = int32(len(newPositions) - 1)
		return midpoints[key]
	}

	for i := 0; i < len(indices); i += 3 {
		v1, v2, v3 := indices[i], indices[i+1], indices[i+2]
		m1 := getMidpoint(v1, v2)
		m2 := getMidpoint(v2, v3)
		m3 := getMidpoint(v3, v1)

		newIndices = append(newIndices, v1, m1, m3, v2, m2, m1, v3, m3, m2, m1, m2, m3)
	}

	return newPositions, newIndices
}

// Tetrahedron is the smallest closed grid: four vertices, each adjacent to the other three
func Tetrahedron() *Grid {
	s := 1 / math.Sqrt(3)
	positions := []Vector3{
		{s, s, s}, {s, -s, -s}, {-s, s, -s}, {-s, -s, s},
	}
	return NewGrid(positions, []int32{0, 1, 2, 0, 3, 1, 0, 2, 3, 1, 3, 2})
}
