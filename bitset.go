package wavecollapse

import "math/bits"

// bitset is a fixed-width set of tile ids. Cells hold windows into a shared
// arena, so every helper works on plain slices of equal length.
type bitset []uint64

func wordsFor(n int) int { return (n + 63) >> 6 }

func newBitset(n int) bitset { return make(bitset, wordsFor(n)) }

func (b bitset) set(i int)      { b[i>>6] |= 1 << uint(i&63) }
func (b bitset) clear(i int)    { b[i>>6] &^= 1 << uint(i&63) }
func (b bitset) has(i int) bool { return b[i>>6]&(1<<uint(i&63)) != 0 }

// fill sets bits [0, n).
func (b bitset) fill(n int) {
	for i := range b {
		b[i] = 0
	}
	full := n >> 6
	for i := range full {
		b[i] = ^uint64(0)
	}
	if rem := n & 63; rem != 0 {
		b[full] = (uint64(1) << uint(rem)) - 1
	}
}

func (b bitset) reset() {
	for i := range b {
		b[i] = 0
	}
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// or sets b |= o.
func (b bitset) or(o bitset) {
	for i, w := range o {
		b[i] |= w
	}
}

// first returns the lowest set bit or -1.
func (b bitset) first() int {
	for i, w := range b {
		if w != 0 {
			return i<<6 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// each calls fn for every set bit in ascending order.
func (b bitset) each(fn func(int)) {
	for i, w := range b {
		for w != 0 {
			t := bits.TrailingZeros64(w)
			fn(i<<6 + t)
			w &= w - 1
		}
	}
}

// ids returns the set bits as a slice.
func (b bitset) ids() []int {
	out := make([]int, 0, b.count())
	b.each(func(i int) { out = append(out, i) })
	return out
}
