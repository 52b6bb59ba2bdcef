package wavecollapse

// trailEntry is the state of one cell before its first change under a
// snapshot. Possibility words live in Grid.trailBits at off.
type trailEntry struct {
	cell  int
	off   int
	state cellState
}

// snapshot is one collapse decision on the backtracking stack.
type snapshot struct {
	id           uint64
	cell         int
	tile         int
	alternatives []int
	trailLen     int
	collapsed    int
}

// save records cell idx on the trail unless it was already saved under the
// current snapshot. Cells changed before any decision need no undo.
func (g *Grid) save(idx int) {
	if len(g.stack) == 0 {
		return
	}
	c := &g.cells[idx]
	id := g.stack[len(g.stack)-1].id
	if c.stamp == id {
		return
	}
	g.trail = append(g.trail, trailEntry{cell: idx, off: len(g.trailBits), state: c.state()})
	g.trailBits = append(g.trailBits, c.possible...)
	c.stamp = id
}

// rewind restores every cell saved after trail position n.
func (g *Grid) rewind(n int) {
	for i := len(g.trail) - 1; i >= n; i-- {
		e := g.trail[i]
		c := &g.cells[e.cell]
		copy(c.possible, g.trailBits[e.off:e.off+g.words])
		c.setState(e.state)
	}
	if n < len(g.trail) {
		g.trailBits = g.trailBits[:g.trail[n].off]
		g.trail = g.trail[:n]
	}
}

// push opens a snapshot for collapsing cell idx to tile.
func (g *Grid) push(idx, tile int, alternatives []int) {
	g.nextID++
	g.stack = append(g.stack, snapshot{
		id:           g.nextID,
		cell:         idx,
		tile:         tile,
		alternatives: alternatives,
		trailLen:     len(g.trail),
		collapsed:    g.collapsedN,
	})
}
