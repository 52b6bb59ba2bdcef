package wavecollapse

import "math"

// Cell is one grid position and the tiles still possible there.
//
// The possible set is a window into an arena owned by the Grid. Weight sums
// are maintained incrementally as candidates are removed.
type Cell struct {
	X, Y int

	possible     bitset
	count        int
	weightSum    float64
	weightLogSum float64 // sum of w*log2(w) over possible tiles
	collapsed    bool
	tile         int

	weights  []float64 // shared, indexed by tile id
	logTerms []float64 // shared, w*log2(w) per tile id
	stamp    uint64    // snapshot id the cell was last saved under
}

// NewCell returns a standalone cell where every tile with a positive
// frequency is possible.
func NewCell(x, y int, frequencies []int) *Cell {
	w, lt := weightTables(frequencies)
	c := &Cell{X: x, Y: y, possible: newBitset(len(frequencies)), weights: w, logTerms: lt}
	c.reset()
	return c
}

func weightTables(frequencies []int) ([]float64, []float64) {
	w := make([]float64, len(frequencies))
	lt := make([]float64, len(frequencies))
	for i, f := range frequencies {
		w[i] = float64(f)
		if f > 0 {
			lt[i] = w[i] * math.Log2(w[i])
		}
	}
	return w, lt
}

// reset makes every tile with positive weight possible again.
func (c *Cell) reset() {
	c.possible.reset()
	c.count, c.weightSum, c.weightLogSum = 0, 0, 0
	for id, w := range c.weights {
		if w <= 0 {
			continue
		}
		c.possible.set(id)
		c.count++
		c.weightSum += w
		c.weightLogSum += c.logTerms[id]
	}
	c.collapsed = false
	c.tile = -1
}

// Entropy returns log2(W) - sum(w*log2(w))/W over the possible tiles, where W
// is their total weight. A single candidate has entropy exactly 0.
// Calling Entropy on an empty cell returns +Inf.
func (c *Cell) Entropy() float64 {
	switch {
	case c.count == 0:
		return math.Inf(1)
	case c.count == 1:
		return 0
	}
	e := math.Log2(c.weightSum) - c.weightLogSum/c.weightSum
	if e < 0 {
		// rounding drift on near-singleton weight mixes
		return 0
	}
	return e
}

// RemoveCandidate drops id from the possible set. It reports whether the set
// changed.
func (c *Cell) RemoveCandidate(id int) bool {
	if !c.possible.has(id) {
		return false
	}
	c.possible.clear(id)
	c.drop(id)
	return true
}

func (c *Cell) drop(id int) {
	c.count--
	c.weightSum -= c.weights[id]
	c.weightLogSum -= c.logTerms[id]
	if c.count == 0 {
		c.weightSum, c.weightLogSum = 0, 0
	}
}

// restrict intersects the possible set with mask and reports whether anything
// was removed. Only removed bits touch the cached sums.
func (c *Cell) restrict(mask bitset) bool {
	changed := false
	for i, w := range c.possible {
		gone := w &^ mask[i]
		if gone == 0 {
			continue
		}
		changed = true
		c.possible[i] = w & mask[i]
		bitset{gone}.each(func(b int) { c.drop(i<<6 + b) })
	}
	return changed
}

// CollapseTo commits the cell to id.
func (c *Cell) CollapseTo(id int) {
	c.possible.reset()
	c.possible.set(id)
	c.count = 1
	c.weightSum = c.weights[id]
	c.weightLogSum = c.logTerms[id]
	c.collapsed = true
	c.tile = id
}

// Possible returns the candidate ids in ascending order.
func (c *Cell) Possible() []int { return c.possible.ids() }

// Has reports whether id is still possible.
func (c *Cell) Has(id int) bool { return c.possible.has(id) }

// Count returns the number of candidates.
func (c *Cell) Count() int { return c.count }

// WeightSum returns the total frequency of the candidates.
func (c *Cell) WeightSum() float64 { return c.weightSum }

// IsCollapsed reports whether the cell has been committed to one tile.
func (c *Cell) IsCollapsed() bool { return c.collapsed }

// Tile returns the committed tile id.
func (c *Cell) Tile() (int, bool) {
	if !c.collapsed {
		return -1, false
	}
	return c.tile, true
}

// cellState is the part of a Cell that snapshots restore.
type cellState struct {
	count        int
	weightSum    float64
	weightLogSum float64
	collapsed    bool
	tile         int
	stamp        uint64
}

func (c *Cell) state() cellState {
	return cellState{c.count, c.weightSum, c.weightLogSum, c.collapsed, c.tile, c.stamp}
}

func (c *Cell) setState(s cellState) {
	c.count, c.weightSum, c.weightLogSum = s.count, s.weightSum, s.weightLogSum
	c.collapsed, c.tile, c.stamp = s.collapsed, s.tile, s.stamp
}
