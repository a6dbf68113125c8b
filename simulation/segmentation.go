package simulation

import (
	"math/rand"

	"tectonics/core"
)

// Segment partitions the grid into count connected regions and returns the
// region index of every vertex.
//
// Seeds are drawn from rng and regions grow from all seeds at once,
// breadth-first, so each vertex joins the region whose seed reaches it
// first. Ties go to the lower seed index through queue order.
func Segment(grid *core.Grid, count int, rng *rand.Rand) []int {
	n := grid.VertexCount()
	segments := make([]int, n)
	for i := range segments {
		segments[i] = -1
	}
	if n == 0 {
		return segments
	}
	if count < 1 {
		count = 1
	}
	if count > n {
		count = n
	}

	queue := make([]int, 0, n)
	for k := 0; k < count; {
		seed := rng.Intn(n)
		if segments[seed] >= 0 {
			continue
		}
		segments[seed] = k
		queue = append(queue, seed)
		k++
	}

	for head := 0; head < len(queue); head++ {
		current := queue[head]
		for _, neighbor := range grid.Neighbors[current] {
			if segments[neighbor] >= 0 {
				continue
			}
			segments[neighbor] = segments[current]
			queue = append(queue, neighbor)
		}
	}

	// vertices on islands of the grid no seed could reach join region 0
	for i, s := range segments {
		if s < 0 {
			segments[i] = 0
		}
	}
	return segments
}
