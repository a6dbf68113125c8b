// Package crust holds the raster of rock composition carried by the
// lithosphere and the conserved-quantity algebra over it.
//
// A Crust stores its eight pools in one contiguous buffer, Everything, of
// length PoolCount*n. Pool p occupies Everything[p*n:(p+1)*n], so bulk
// operations (copy, reset, scale, add) run over one flat slice and the five
// conserved pools together form ConservedArray.
package crust

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"tectonics/field"
)

// ErrBufferSize is returned when raw bytes do not match the crust length
var ErrBufferSize = errors.New("crust: buffer size mismatch")

// Crust is a raster of RockColumn over n grid vertices
type Crust struct {
	Everything     []float64
	ConservedArray []float64

	Sediment       []float64
	Sedimentary    []float64
	Metamorphic    []float64
	FelsicPlutonic []float64
	FelsicVolcanic []float64
	MaficVolcanic  []float64
	MaficPlutonic  []float64
	Age            []float64

	pools [PoolCount][]float64
	n     int
}

// New allocates a zeroed crust over n cells
func New(n int) *Crust {
	c := &Crust{
		Everything: make([]float64, PoolCount*n),
		n:          n,
	}
	for p := 0; p < PoolCount; p++ {
		c.pools[p] = c.Everything[p*n : (p+1)*n : (p+1)*n]
	}
	c.ConservedArray = c.Everything[:len(ConservedPools)*n : len(ConservedPools)*n]
	c.Sediment = c.pools[Sediment]
	c.Sedimentary = c.pools[Sedimentary]
	c.Metamorphic = c.pools[Metamorphic]
	c.FelsicPlutonic = c.pools[FelsicPlutonic]
	c.FelsicVolcanic = c.pools[FelsicVolcanic]
	c.MaficVolcanic = c.pools[MaficVolcanic]
	c.MaficPlutonic = c.pools[MaficPlutonic]
	c.Age = c.pools[Age]
	return c
}

// Len returns the number of cells
func (c *Crust) Len() int {
	return c.n
}

// Pool returns the per-cell slice of pool p
func (c *Crust) Pool(p Pool) []float64 {
	return c.pools[p]
}

// Column reads the composition of cell i
func (c *Crust) Column(i int) RockColumn {
	var r RockColumn
	for p := 0; p < PoolCount; p++ {
		r.Set(Pool(p), c.pools[p][i])
	}
	return r
}

// SetColumn writes the composition of cell i
func (c *Crust) SetColumn(i int, r RockColumn) {
	for p := 0; p < PoolCount; p++ {
		c.pools[p][i] = r.Get(Pool(p))
	}
}

// Fill sets every cell to r
func (c *Crust) Fill(r RockColumn) {
	for p := 0; p < PoolCount; p++ {
		field.Fill(c.pools[p], r.Get(Pool(p)))
	}
}

// FillWhere sets cells where mask is set to r
func (c *Crust) FillWhere(r RockColumn, mask []bool) {
	for i, m := range mask {
		if m {
			c.SetColumn(i, r)
		}
	}
}

// Reset zeroes every pool
func (c *Crust) Reset() {
	clear(c.Everything)
}

// CopyFrom overwrites c with src
func (c *Crust) CopyFrom(src *Crust) {
	field.Copy(c.Everything, src.Everything)
}

// Clone returns an independent copy of c
func (c *Crust) Clone() *Crust {
	out := New(c.n)
	out.CopyFrom(c)
	return out
}

// Add computes c += other over all pools
func (c *Crust) Add(other *Crust) {
	field.Add(c.Everything, other.Everything)
}

// MultField multiplies every pool by a per-cell factor
func (c *Crust) MultField(factor []float64) {
	for p := 0; p < PoolCount; p++ {
		field.Mul(c.pools[p], factor)
	}
}

// Select overwrites c with src wherever mask is set
func (c *Crust) Select(src *Crust, mask []bool) {
	for p := 0; p < PoolCount; p++ {
		field.Select(c.pools[p], src.pools[p], mask)
	}
}

// ZeroWhereNot clears every pool wherever mask is unset
func (c *Crust) ZeroWhereNot(mask []bool) {
	for p := 0; p < PoolCount; p++ {
		field.ZeroWhereNot(c.pools[p], mask)
	}
}

// Gather resamples src into c by id: c[i] = src[ids[i]]
func (c *Crust) Gather(src *Crust, ids []int) {
	for p := 0; p < PoolCount; p++ {
		field.Gather(c.pools[p], src.pools[p], ids)
	}
}

// ScatterAdd adds every cell i of src into c[ids[i]]
func (c *Crust) ScatterAdd(src *Crust, ids []int) {
	for p := 0; p < PoolCount; p++ {
		field.ScatterAdd(c.pools[p], src.pools[p], ids)
	}
}

// Bytes returns the backing buffer as little-endian IEEE 754 doubles
func (c *Crust) Bytes() []byte {
	out := make([]byte, 8*len(c.Everything))
	for i, v := range c.Everything {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

// SetBytes restores a buffer produced by Bytes
func (c *Crust) SetBytes(raw []byte) error {
	if len(raw) != 8*len(c.Everything) {
		return fmt.Errorf("%w: got %d bytes for %d cells", ErrBufferSize, len(raw), c.n)
	}
	for i := range c.Everything {
		c.Everything[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return nil
}

// FromBytes allocates a crust of n cells from raw bytes
func FromBytes(n int, raw []byte) (*Crust, error) {
	c := New(n)
	if err := c.SetBytes(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// ClampMass raises any negative mass pool value to zero. Age is untouched.
func (c *Crust) ClampMass() {
	field.Clamp(c.Everything[:len(MassPools)*c.n], 0, math.Inf(1))
}
