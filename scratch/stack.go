// Package scratch hands out reusable raster buffers with stack discipline.
//
// A simulation step needs many short-lived rasters. Rather than allocating
// them every step, callers open a named Checkpoint, take what they need from
// it, and release it before returning:
//
//	cp := pad.Checkpoint("erosion")
//	defer cp.Release()
//	fractions := cp.Float64s(n)
//
// Checkpoints nest and must be released innermost first. Slices taken from a
// checkpoint must not be used after it is released.
package scratch

import (
	"fmt"
)

// Stack is a bump allocator over growable backing arrays
type Stack struct {
	floats []float64
	bools  []bool
	ints   []int

	frames []*Checkpoint
}

// Checkpoint marks the allocation state at the moment it was opened
type Checkpoint struct {
	stack    *Stack
	name     string
	depth    int
	floatTop int
	boolTop  int
	intTop   int
	released bool
}

// NewStack creates a stack with initial capacity for n float64 values
func NewStack(n int) *Stack {
	return &Stack{
		floats: make([]float64, 0, n),
		bools:  make([]bool, 0, n),
		ints:   make([]int, 0, n),
	}
}

// Checkpoint opens a named frame on top of the stack
func (s *Stack) Checkpoint(name string) *Checkpoint {
	cp := &Checkpoint{
		stack:    s,
		name:     name,
		depth:    len(s.frames),
		floatTop: len(s.floats),
		boolTop:  len(s.bools),
		intTop:   len(s.ints),
	}
	s.frames = append(s.frames, cp)
	return cp
}

// Depth reports how many checkpoints are open
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Release pops the checkpoint. Releasing anything but the innermost open
// checkpoint panics; releasing twice is a no-op so it is safe under defer.
func (cp *Checkpoint) Release() {
	if cp.released {
		return
	}
	s := cp.stack
	top := len(s.frames) - 1
	if top < 0 || s.frames[top] != cp {
		inner := "<none>"
		if top >= 0 {
			inner = s.frames[top].name
		}
		panic(fmt.Sprintf("scratch: release of %q while %q is still open", cp.name, inner))
	}
	s.frames[top] = nil
	s.frames = s.frames[:top]
	s.floats = s.floats[:cp.floatTop]
	s.bools = s.bools[:cp.boolTop]
	s.ints = s.ints[:cp.intTop]
	cp.released = true
}

func (cp *Checkpoint) mustBeTop() {
	s := cp.stack
	if cp.released || len(s.frames) == 0 || s.frames[len(s.frames)-1] != cp {
		panic(fmt.Sprintf("scratch: allocation from %q which is not the innermost open checkpoint", cp.name))
	}
}

// Float64s returns a zeroed slice of length n
func (cp *Checkpoint) Float64s(n int) []float64 {
	cp.mustBeTop()
	s := cp.stack
	start := len(s.floats)
	s.floats = grow(s.floats, n)
	out := s.floats[start : start+n : start+n]
	clear(out)
	return out
}

// Bools returns a zeroed slice of length n
func (cp *Checkpoint) Bools(n int) []bool {
	cp.mustBeTop()
	s := cp.stack
	start := len(s.bools)
	s.bools = grow(s.bools, n)
	out := s.bools[start : start+n : start+n]
	clear(out)
	return out
}

// Ints returns a zeroed slice of length n
func (cp *Checkpoint) Ints(n int) []int {
	cp.mustBeTop()
	s := cp.stack
	start := len(s.ints)
	s.ints = grow(s.ints, n)
	out := s.ints[start : start+n : start+n]
	clear(out)
	return out
}

// grow extends buf by n elements. When the backing array is too small a new
// one is allocated; slices handed out earlier keep pointing at the old array
// and stay valid until their checkpoint is released.
func grow[T any](buf []T, n int) []T {
	if len(buf)+n <= cap(buf) {
		return buf[:len(buf)+n]
	}
	next := make([]T, len(buf)+n, 2*cap(buf)+n)
	copy(next, buf)
	return next
}
