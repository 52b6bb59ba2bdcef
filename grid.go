package wavecollapse

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// entropyEpsilon is the tolerance used when comparing cell entropies for ties.
const entropyEpsilon = 1e-9

// StepResult is the outcome of one solver step.
type StepResult int

const (
	// StepProgressed means a cell was collapsed and uncollapsed cells remain.
	StepProgressed StepResult = iota
	// StepSolved means every cell is collapsed.
	StepSolved
	// StepFailed means backtracking was exhausted. See ErrSolverFailure.
	StepFailed
)

func (r StepResult) String() string {
	switch r {
	case StepProgressed:
		return "progressed"
	case StepSolved:
		return "solved"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GridOptions configures a Grid.
type GridOptions struct {
	Width, Height int
	// Wrap connects opposite grid edges.
	Wrap bool
	// Seed seeds the default PCG source. Ignored when Source is set.
	Seed uint64
	// Source is an optional random source shared by tie-breaking and tile
	// sampling.
	Source rand.Source
}

// Stats describes solver progress.
type Stats struct {
	Steps      int
	Backtracks int
	Depth      int
	Collapsed  int
	Cells      int
}

// Grid is the constraint solver. It is not safe for concurrent use.
type Grid struct {
	width, height int
	wrap          bool

	rules    *Rules
	tiles    []*Tile
	anchors  []colorful.Color
	weights  []float64
	logTerms []float64

	cells []Cell
	arena []uint64
	words int

	rng *rand.Rand

	trail     []trailEntry
	trailBits []uint64
	stack     []snapshot
	nextID    uint64

	collapsedN int
	failed     bool
	steps      int
	backtracks int

	queue   []int
	queued  []bool
	scratch bitset
}

// NewGrid returns a grid where every cell may hold any tile in rules.
func NewGrid(rules *Rules, opt GridOptions) (*Grid, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if opt.Width < 1 || opt.Height < 1 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrInvalidOptions, opt.Width, opt.Height)
	}
	n := opt.Width * opt.Height
	g := &Grid{
		width:  opt.Width,
		height: opt.Height,
		wrap:   opt.Wrap,
		rules:  rules,
		words:  wordsFor(rules.Len()),
		cells:  make([]Cell, n),
		queued: make([]bool, n),
	}
	g.weights, g.logTerms = weightTables(rules.Frequencies)
	g.arena = make([]uint64, n*g.words)
	g.scratch = newBitset(rules.Len())
	for i := range g.cells {
		g.cells[i] = Cell{
			X:        i % g.width,
			Y:        i / g.width,
			possible: bitset(g.arena[i*g.words : (i+1)*g.words : (i+1)*g.words]),
			weights:  g.weights,
			logTerms: g.logTerms,
		}
	}
	src := opt.Source
	if src == nil {
		src = rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)
	}
	g.rng = rand.New(src)
	g.Reset()
	return g, nil
}

// NewGridFromTileSet returns a grid over ts that can report tile appearance
// through CellAt.
func NewGridFromTileSet(ts *TileSet, opt GridOptions) (*Grid, error) {
	if ts == nil {
		return nil, ErrEmptyTileSet
	}
	g, err := NewGrid(ts.Rules(), opt)
	if err != nil {
		return nil, err
	}
	g.tiles = ts.Tiles
	g.anchors = anchorColors(ts.Tiles)
	return g, nil
}

// Reset clears every cell and the snapshot stack, keeping the random source.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i].reset()
		g.cells[i].stamp = 0
	}
	g.trail = g.trail[:0]
	g.trailBits = g.trailBits[:0]
	g.stack = g.stack[:0]
	g.nextID = 0
	g.collapsedN = 0
	g.failed = false
	g.steps = 0
	g.backtracks = 0
}

// Reseed resets the grid and replaces the random source with a PCG seeded by
// seed.
func (g *Grid) Reseed(seed uint64) {
	g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g.Reset()
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

// Rules returns the adjacency and frequency tables the grid solves against.
func (g *Grid) Rules() *Rules { return g.rules }

// Cell returns a detached copy of the cell at (x, y). Changing the copy does
// not affect the grid; use Collapse to commit a tile.
func (g *Grid) Cell(x, y int) *Cell {
	c := g.cells[y*g.width+x]
	c.possible = append(bitset(nil), c.possible...)
	return &c
}

// IsFinished reports whether the grid is solved or has failed.
func (g *Grid) IsFinished() bool { return g.failed || g.Solved() }

// Solved reports whether every cell is collapsed.
func (g *Grid) Solved() bool { return !g.failed && g.collapsedN == len(g.cells) }

// Failed reports whether backtracking was exhausted.
func (g *Grid) Failed() bool { return g.failed }

// Err returns ErrSolverFailure after a failure and nil otherwise.
func (g *Grid) Err() error {
	if g.failed {
		return ErrSolverFailure
	}
	return nil
}

// Stats returns the current progress counters.
func (g *Grid) Stats() Stats {
	return Stats{
		Steps:      g.steps,
		Backtracks: g.backtracks,
		Depth:      len(g.stack),
		Collapsed:  g.collapsedN,
		Cells:      len(g.cells),
	}
}

// Tiles returns the assigned tile id per cell, -1 where uncollapsed.
func (g *Grid) Tiles() [][]int {
	out := make([][]int, g.height)
	for y := range g.height {
		out[y] = make([]int, g.width)
		for x := range g.width {
			c := &g.cells[y*g.width+x]
			out[y][x] = -1
			if c.collapsed {
				out[y][x] = c.tile
			}
		}
	}
	return out
}

// Step collapses the lowest-entropy cell and propagates the result,
// backtracking through earlier decisions on contradiction.
func (g *Grid) Step() (StepResult, error) {
	if g.failed {
		return StepFailed, ErrSolverFailure
	}
	idx := g.selectCell()
	if idx < 0 {
		return StepSolved, nil
	}
	g.steps++
	c := &g.cells[idx]
	cand := c.possible.ids()
	tile := g.sample(cand)
	return g.decide(idx, tile, without(cand, tile))
}

// Collapse commits the cell at (x, y) to tile and propagates, as if the
// solver had chosen it. The other candidates remain available to
// backtracking.
func (g *Grid) Collapse(x, y, tile int) (StepResult, error) {
	if g.failed {
		return StepFailed, ErrSolverFailure
	}
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return StepProgressed, fmt.Errorf("%w: cell (%d,%d) outside %dx%d grid", ErrInvalidOptions, x, y, g.width, g.height)
	}
	idx := y*g.width + x
	c := &g.cells[idx]
	if c.collapsed || tile < 0 || tile >= g.rules.Len() || !c.possible.has(tile) {
		return StepProgressed, fmt.Errorf("%w: tile %d not possible at (%d,%d)", ErrInvalidOptions, tile, x, y)
	}
	g.steps++
	return g.decide(idx, tile, without(c.possible.ids(), tile))
}

// Run steps until the grid is solved, fails, or ctx is done.
func (g *Grid) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := g.Step()
		switch res {
		case StepSolved:
			return nil
		case StepFailed:
			return err
		}
	}
}

func (g *Grid) decide(idx, tile int, alternatives []int) (StepResult, error) {
	g.push(idx, tile, alternatives)
	err := g.apply(idx, tile)
	for err != nil {
		if !g.backtrack() {
			g.failed = true
			Logger().Info("grid failed", "steps", g.steps, "backtracks", g.backtracks)
			return StepFailed, ErrSolverFailure
		}
		top := &g.stack[len(g.stack)-1]
		err = g.apply(top.cell, top.tile)
	}
	if g.collapsedN == len(g.cells) {
		Logger().Info("grid solved", "steps", g.steps, "backtracks", g.backtracks)
		return StepSolved, nil
	}
	return StepProgressed, nil
}

// apply collapses idx to tile under the top snapshot and propagates.
func (g *Grid) apply(idx, tile int) error {
	g.save(idx)
	g.cells[idx].CollapseTo(tile)
	g.collapsedN++
	return g.propagate(idx)
}

// backtrack rewinds to the most recent snapshot with an untried alternative
// and arms it with that alternative. It reports false once the stack is empty.
func (g *Grid) backtrack() bool {
	for len(g.stack) > 0 {
		top := &g.stack[len(g.stack)-1]
		g.rewind(top.trailLen)
		g.collapsedN = top.collapsed
		g.backtracks++
		if len(top.alternatives) == 0 {
			g.stack = g.stack[:len(g.stack)-1]
			Logger().Debug("snapshot exhausted", "cell", top.cell, "depth", len(g.stack))
			continue
		}
		next := g.sample(top.alternatives)
		top.alternatives = without(top.alternatives, next)
		top.tile = next
		g.nextID++
		top.id = g.nextID
		Logger().Debug("backtrack", "cell", top.cell, "tile", next, "left", len(top.alternatives), "depth", len(g.stack))
		return true
	}
	return false
}

// selectCell returns the uncollapsed cell with minimum entropy, breaking ties
// uniformly at random, or -1 when every cell is collapsed.
func (g *Grid) selectCell() int {
	best := -1
	bestE := math.Inf(1)
	ties := 0
	for i := range g.cells {
		c := &g.cells[i]
		if c.collapsed {
			continue
		}
		e := c.Entropy()
		switch {
		case e < bestE-entropyEpsilon:
			best, bestE, ties = i, e, 1
		case e <= bestE+entropyEpsilon:
			ties++
			if g.rng.IntN(ties) == 0 {
				best = i
			}
		}
	}
	return best
}

// sample draws one id from ids weighted by tile frequency.
func (g *Grid) sample(ids []int) int {
	if len(ids) == 1 {
		return ids[0]
	}
	w := make([]float64, len(ids))
	for i, id := range ids {
		w[i] = g.weights[id]
	}
	cum := floats.CumSum(make([]float64, len(w)), w)
	r := g.rng.Float64() * cum[len(cum)-1]
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > r })
	if i == len(cum) {
		i--
	}
	return ids[i]
}

// neighbor returns the index of the cell in direction d of idx, or -1.
func (g *Grid) neighbor(idx int, d Direction) int {
	dx, dy := d.Offset()
	x, y := idx%g.width+dx, idx/g.width+dy
	if g.wrap {
		x = (x + g.width) % g.width
		y = (y + g.height) % g.height
	} else if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return -1
	}
	return y*g.width + x
}

// propagate removes candidates unsupported by their neighbours, breadth
// first from start, until nothing changes or a cell empties.
func (g *Grid) propagate(start int) error {
	g.queue = append(g.queue[:0], start)
	g.queued[start] = true
	defer func() {
		for _, i := range g.queue {
			g.queued[i] = false
		}
	}()
	adj := g.rules.Adjacency
	for head := 0; head < len(g.queue); head++ {
		cur := g.queue[head]
		g.queued[cur] = false
		for _, d := range Directions {
			n := g.neighbor(cur, d)
			if n < 0 {
				continue
			}
			g.scratch.reset()
			g.cells[cur].possible.each(func(t int) { g.scratch.or(adj.allowed[t][d]) })
			nc := &g.cells[n]
			if !removes(nc.possible, g.scratch) {
				continue
			}
			g.save(n)
			nc.restrict(g.scratch)
			if nc.count == 0 {
				g.queue = g.queue[head+1:]
				return errContradiction
			}
			if !g.queued[n] {
				g.queued[n] = true
				g.queue = append(g.queue, n)
			}
		}
	}
	g.queue = g.queue[:0]
	return nil
}

// removes reports whether intersecting b with mask would drop any bit.
func removes(b, mask bitset) bool {
	for i, w := range b {
		if w&^mask[i] != 0 {
			return true
		}
	}
	return false
}

func without(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
