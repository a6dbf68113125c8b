// Package field provides the elementwise raster operations the simulation is
// written in terms of. A raster is a plain slice with one value per grid
// vertex; masks are []bool rasters. Length mismatches are programming errors
// and panic, as they do in gonum's floats package.
package field

import (
	"gonum.org/v1/gonum/floats"
)

// Fill sets every element of dst to v
func Fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

// Copy copies src into dst
func Copy(dst, src []float64) {
	if len(dst) != len(src) {
		panic("field: length mismatch")
	}
	copy(dst, src)
}

// Add computes dst += src
func Add(dst, src []float64) {
	floats.Add(dst, src)
}

// Mul computes dst *= src elementwise
func Mul(dst, src []float64) {
	floats.Mul(dst, src)
}

// AddScaled computes dst += c*src
func AddScaled(dst []float64, c float64, src []float64) {
	floats.AddScaled(dst, c, src)
}

// Sum returns the sum of all elements
func Sum(src []float64) float64 {
	return floats.Sum(src)
}

// Clamp limits every element to [lo, hi]
func Clamp(dst []float64, lo, hi float64) {
	for i, v := range dst {
		if v < lo {
			dst[i] = lo
		} else if v > hi {
			dst[i] = hi
		}
	}
}

// Select overwrites dst with src wherever mask is set
func Select(dst, src []float64, mask []bool) {
	if len(dst) != len(src) || len(dst) != len(mask) {
		panic("field: length mismatch")
	}
	for i, m := range mask {
		if m {
			dst[i] = src[i]
		}
	}
}

// ZeroWhereNot clears dst wherever mask is unset
func ZeroWhereNot(dst []float64, mask []bool) {
	if len(dst) != len(mask) {
		panic("field: length mismatch")
	}
	for i, m := range mask {
		if !m {
			dst[i] = 0
		}
	}
}

// GreaterThan writes a[i] > threshold into dst
func GreaterThan(dst []bool, a []float64, threshold float64) {
	if len(dst) != len(a) {
		panic("field: length mismatch")
	}
	for i, v := range a {
		dst[i] = v > threshold
	}
}

// Gather resamples by id: dst[i] = src[ids[i]]
func Gather(dst, src []float64, ids []int) {
	if len(dst) != len(ids) {
		panic("field: length mismatch")
	}
	for i, id := range ids {
		dst[i] = src[id]
	}
}

// GatherBools is Gather for masks
func GatherBools(dst, src []bool, ids []int) {
	if len(dst) != len(ids) {
		panic("field: length mismatch")
	}
	for i, id := range ids {
		dst[i] = src[id]
	}
}

// ScatterAdd resamples by id in the many-to-one direction: every src[i] is
// added into dst[ids[i]], so several sources landing on one destination sum.
// The total of src is preserved in dst.
func ScatterAdd(dst, src []float64, ids []int) {
	if len(src) != len(ids) {
		panic("field: length mismatch")
	}
	for i, id := range ids {
		dst[id] += src[i]
	}
}

// AddConst computes dst += c
func AddConst(dst []float64, c float64) {
	floats.AddConst(c, dst)
}
