package field

import (
	"tectonics/core"
)

// Binary morphology over a grid's adjacency. A cell's structuring element is
// itself plus its neighbors.

// Dilate sets dst[i] when i or any neighbor of i is set in src
func Dilate(grid *core.Grid, dst, src []bool) {
	checkMorphology(grid, dst, src)
	for i, neighbors := range grid.Neighbors {
		out := src[i]
		for _, n := range neighbors {
			if out {
				break
			}
			out = src[n]
		}
		dst[i] = out
	}
}

// Erode sets dst[i] only when i and all neighbors of i are set in src
func Erode(grid *core.Grid, dst, src []bool) {
	checkMorphology(grid, dst, src)
	for i, neighbors := range grid.Neighbors {
		out := src[i]
		for _, n := range neighbors {
			if !out {
				break
			}
			out = src[n]
		}
		dst[i] = out
	}
}

// Margin is the ring just outside src: dilation minus the original
func Margin(grid *core.Grid, dst, src []bool) {
	Dilate(grid, dst, src)
	for i, s := range src {
		if s {
			dst[i] = false
		}
	}
}

// Padding is the ring just inside src: the original minus its erosion
func Padding(grid *core.Grid, dst, src []bool) {
	Erode(grid, dst, src)
	for i, s := range src {
		dst[i] = s && !dst[i]
	}
}

// And computes dst &= src
func And(dst, src []bool) {
	if len(dst) != len(src) {
		panic("field: length mismatch")
	}
	for i, s := range src {
		dst[i] = dst[i] && s
	}
}

// Or computes dst |= src
func Or(dst, src []bool) {
	if len(dst) != len(src) {
		panic("field: length mismatch")
	}
	for i, s := range src {
		dst[i] = dst[i] || s
	}
}

// AndNot computes dst &^= src
func AndNot(dst, src []bool) {
	if len(dst) != len(src) {
		panic("field: length mismatch")
	}
	for i, s := range src {
		dst[i] = dst[i] && !s
	}
}

// Count returns the number of set cells
func Count(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

func checkMorphology(grid *core.Grid, dst, src []bool) {
	if len(dst) != grid.VertexCount() || len(src) != grid.VertexCount() {
		panic("field: raster does not match grid")
	}
	if len(dst) > 0 && &dst[0] == &src[0] {
		panic("field: morphology cannot run in place")
	}
}
