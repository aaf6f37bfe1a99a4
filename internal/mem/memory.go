// Package mem implements LODA's sparse register memory: an
// address-indexed store over number.Number with a dense small-index
// prefix and a sparse tail, behaving externally like an infinite
// zero-initialized vector.
package mem

import "loda/internal/number"

// denseSize is the width of the dense prefix. Programs overwhelmingly
// address a handful of low cells; the sparse map only pays for indices
// beyond that.
const denseSize = 32

// Memory maps nonnegative cell indices to Numbers, defaulting to zero.
type Memory struct {
	dense  [denseSize]number.Number
	sparse map[int64]number.Number
}

// New returns an empty, all-zero Memory.
func New() Memory {
	return Memory{}
}

// Get returns the value at cell i, or zero if unset. The dense prefix's
// zero Go value already represents number.Zero, so unset dense cells need
// no special casing.
func (m Memory) Get(i int64) number.Number {
	if i < 0 {
		return number.Zero
	}
	if i < denseSize {
		return m.dense[i]
	}
	if m.sparse == nil {
		return number.Zero
	}
	if v, ok := m.sparse[i]; ok {
		return v
	}
	return number.Zero
}

// Set stores v at cell i.
func (m *Memory) Set(i int64, v number.Number) {
	if i < 0 {
		panic("mem: negative cell index")
	}
	if i < denseSize {
		m.dense[i] = v
		return
	}
	if m.sparse == nil {
		m.sparse = make(map[int64]number.Number)
	}
	m.sparse[i] = v
}

// Clear zeros the cells [start, start+length).
func (m *Memory) Clear(start, length int64) {
	for i := start; i < start+length; i++ {
		m.Set(i, number.Zero)
	}
}

// Fragment returns a fresh Memory equal to the window [start, start+length)
// of m, shifted down so the window begins at index 0.
func (m Memory) Fragment(start, length int64) Memory {
	var f Memory
	for i := int64(0); i < length; i++ {
		f.Set(i, m.Get(start+i))
	}
	return f
}

// IsLess lexicographically compares the first length cells of m and
// other, returning true iff m is strictly less.
func (m Memory) IsLess(other Memory, length int64) bool {
	for i := int64(0); i < length; i++ {
		a, b := m.Get(i), other.Get(i)
		if a.IsInfinite() || b.IsInfinite() {
			// Infinity only ever compares equal to itself here; any
			// finite/infinite mismatch breaks the ordering.
			if a.IsInfinite() && b.IsInfinite() {
				continue
			}
			return b.IsInfinite()
		}
		switch {
		case number.Cmp(a, b) < 0:
			return true
		case number.Cmp(a, b) > 0:
			return false
		}
	}
	return false
}

// maxCell returns the highest index with a nonzero value, or -1 if m is
// entirely zero. Used by Equal to ignore trailing zeros.
func (m Memory) maxCell() int64 {
	max := int64(-1)
	for i := denseSize - 1; i >= 0; i-- {
		if !number.Equal(m.dense[i], number.Zero) {
			max = int64(i)
			break
		}
	}
	for i, v := range m.sparse {
		if !number.Equal(v, number.Zero) && i > max {
			max = i
		}
	}
	return max
}

// Equal reports whether two Memories agree everywhere, ignoring trailing
// zeros.
func Equal(a, b Memory) bool {
	max := a.maxCell()
	if b.maxCell() > max {
		max = b.maxCell()
	}
	for i := int64(0); i <= max; i++ {
		if !number.Equal(a.Get(i), b.Get(i)) {
			return false
		}
	}
	return true
}
