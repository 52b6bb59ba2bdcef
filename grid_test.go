package wavecollapse

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertConsistent checks every pair of adjacent cells against the rules.
func assertConsistent(t *testing.T, g *Grid) {
	t.Helper()
	tiles := g.Tiles()
	for y := range g.Height() {
		for x := range g.Width() {
			idx := y*g.Width() + x
			for _, d := range Directions {
				n := g.neighbor(idx, d)
				if n < 0 {
					continue
				}
				a, b := tiles[y][x], tiles[n/g.Width()][n%g.Width()]
				require.GreaterOrEqual(t, a, 0)
				assert.True(t, g.Rules().Adjacency.Allowed(a, d, b),
					"tile %d at (%d,%d) rejects tile %d to the %s", a, x, y, b, d)
			}
		}
	}
}

// colouring returns rules where neighbouring tiles must differ.
func colouring(n int) *Rules {
	r := NewRules(n)
	for i := range n {
		for j := range n {
			if i == j {
				continue
			}
			for _, d := range Directions {
				r.Adjacency.Allow(i, d, j)
			}
		}
	}
	return r
}

// chain returns rules where neighbouring tiles differ by at most one.
func chain(n int) *Rules {
	r := NewRules(n)
	for i := range n {
		for j := max(0, i-1); j <= min(n-1, i+1); j++ {
			for _, d := range Directions {
				r.Adjacency.Allow(i, d, j)
			}
		}
	}
	return r
}

func TestGridSingleCellTwoTiles(t *testing.T) {
	r := NewRules(2)
	r.Adjacency.Allow(0, North, 0)
	r.Adjacency.Allow(0, East, 0)
	r.Adjacency.Allow(1, North, 1)
	r.Adjacency.Allow(1, East, 1)

	g, err := NewGrid(r, GridOptions{Width: 1, Height: 1, Seed: 1})
	require.NoError(t, err)

	res, err := g.Step()
	require.NoError(t, err)
	assert.Equal(t, StepSolved, res)
	assert.True(t, g.Solved())
	assert.Contains(t, []int{0, 1}, g.Tiles()[0][0])
}

func TestGridAlternatingPair(t *testing.T) {
	r := NewRules(2)
	r.Adjacency.Allow(0, East, 1)
	r.Adjacency.Allow(1, East, 0)

	for seed := range uint64(20) {
		g, err := NewGrid(r, GridOptions{Width: 2, Height: 1, Seed: seed})
		require.NoError(t, err)
		require.NoError(t, g.Run(context.Background()))
		row := g.Tiles()[0]
		assert.NotEqual(t, row[0], row[1])
		assertConsistent(t, g)
	}
}

func TestGridSelfIncompatibleTileFails(t *testing.T) {
	g, err := NewGrid(NewRules(1), GridOptions{Width: 2, Height: 2})
	require.NoError(t, err)

	res, err := g.Step()
	assert.Equal(t, StepFailed, res)
	assert.ErrorIs(t, err, ErrSolverFailure)
	assert.True(t, g.Failed())
	assert.True(t, g.IsFinished())
	assert.False(t, g.Solved())
	assert.ErrorIs(t, g.Err(), ErrSolverFailure)

	// Failure is sticky.
	res, err = g.Step()
	assert.Equal(t, StepFailed, res)
	assert.ErrorIs(t, err, ErrSolverFailure)
	assert.ErrorIs(t, g.Run(context.Background()), ErrSolverFailure)

	g.Reset()
	assert.False(t, g.Failed())
	assert.NoError(t, g.Err())
	assert.Equal(t, 1, g.CellAt(1, 1).Count)
}

func TestGridOnlyLiveTileSelfIncompatibleFails(t *testing.T) {
	r := NewRules(2)
	r.Frequencies = []int{1, 0}
	r.Adjacency.Allow(0, East, 1)
	r.Adjacency.Allow(0, North, 1)
	r.Adjacency.Allow(1, East, 1)
	r.Adjacency.Allow(1, North, 1)

	g, err := NewGrid(r, GridOptions{Width: 2, Height: 2, Seed: 8})
	require.NoError(t, err)
	assert.ErrorIs(t, g.Run(context.Background()), ErrSolverFailure)
}

func TestGridCollapsedTileIsStable(t *testing.T) {
	g, err := NewGrid(chain(4), GridOptions{Width: 4, Height: 4, Seed: 6})
	require.NoError(t, err)
	_, err = g.Step()
	require.NoError(t, err)

	var first CellView
	for y := range 4 {
		for x := range 4 {
			if v := g.CellAt(x, y); v.Collapsed {
				first = v
			}
		}
	}
	require.True(t, first.Collapsed)
	for range 5 {
		_, err := g.Step()
		require.NoError(t, err)
		assert.Equal(t, first.Tile, g.CellAt(first.X, first.Y).Tile)
	}
}

func TestGridSelfCompatibleTileTerminates(t *testing.T) {
	r := NewRules(1)
	r.Adjacency.AllowAll()
	g, err := NewGrid(r, GridOptions{Width: 5, Height: 4, Wrap: true})
	require.NoError(t, err)

	require.NoError(t, g.Run(context.Background()))
	st := g.Stats()
	assert.Equal(t, 20, st.Steps)
	assert.Equal(t, 20, st.Collapsed)
	assert.Equal(t, 0, st.Backtracks)
	for _, row := range g.Tiles() {
		for _, id := range row {
			assert.Equal(t, 0, id)
		}
	}
}

func TestGridOnlyLiveTileIsPlaced(t *testing.T) {
	r := NewRules(3)
	r.Frequencies = []int{0, 4, 0}
	r.Adjacency.AllowAll()
	g, err := NewGrid(r, GridOptions{Width: 3, Height: 3, Seed: 9})
	require.NoError(t, err)

	require.NoError(t, g.Run(context.Background()))
	for _, row := range g.Tiles() {
		for _, id := range row {
			assert.Equal(t, 1, id)
		}
	}
}

func TestGridSolvedGridsRespectAdjacency(t *testing.T) {
	cases := []struct {
		name  string
		rules *Rules
		wrap  bool
	}{
		{name: "chain", rules: chain(5)},
		{name: "chain wrapped", rules: chain(4), wrap: true},
		{name: "three colouring", rules: colouring(3)},
		{name: "three colouring wrapped", rules: colouring(3), wrap: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for seed := range uint64(10) {
				g, err := NewGrid(tc.rules, GridOptions{Width: 6, Height: 6, Wrap: tc.wrap, Seed: seed})
				require.NoError(t, err)
				require.NoError(t, g.Run(context.Background()), "seed %d", seed)
				assertConsistent(t, g)
			}
		})
	}
}

func TestGridUnsatisfiableExhaustsBacktracking(t *testing.T) {
	// A 3x3 torus has odd cycles, so two colours cannot work.
	g, err := NewGrid(colouring(2), GridOptions{Width: 3, Height: 3, Wrap: true, Seed: 4})
	require.NoError(t, err)

	err = g.Run(context.Background())
	assert.ErrorIs(t, err, ErrSolverFailure)
	assert.Equal(t, 2, g.Stats().Backtracks)
	assert.Equal(t, 0, g.Stats().Depth)
}

func TestGridBacktracksFromForcedDeadEnd(t *testing.T) {
	r := NewRules(2)
	r.Adjacency.Allow(1, East, 1)
	g, err := NewGrid(r, GridOptions{Width: 2, Height: 1})
	require.NoError(t, err)

	// Tile 0 accepts no east neighbour, so the forced choice is undone and
	// the remaining alternative is taken.
	res, err := g.Collapse(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, StepProgressed, res)
	assert.Equal(t, 1, g.Stats().Backtracks)
	tile, ok := g.Cell(0, 0).Tile()
	require.True(t, ok)
	assert.Equal(t, 1, tile)
	assert.Equal(t, []int{1}, g.Cell(1, 0).Possible())

	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, [][]int{{1, 1}}, g.Tiles())
}

func TestGridCollapse(t *testing.T) {
	g, err := NewGrid(chain(3), GridOptions{Width: 3, Height: 1})
	require.NoError(t, err)

	_, err = g.Collapse(5, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	_, err = g.Collapse(0, 0, 7)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	res, err := g.Collapse(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, StepProgressed, res)
	assert.Equal(t, []int{0, 1}, g.Cell(1, 0).Possible())
	assert.Equal(t, []int{0, 1, 2}, g.Cell(2, 0).Possible())

	_, err = g.Collapse(0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidOptions, "collapsed cells cannot be changed")
	_, err = g.Collapse(1, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidOptions, "tile 2 was ruled out")
}

func TestGridDeterministicUnderSeed(t *testing.T) {
	solve := func(opt GridOptions) [][]int {
		g, err := NewGrid(chain(6), opt)
		require.NoError(t, err)
		require.NoError(t, g.Run(context.Background()))
		return g.Tiles()
	}
	opt := GridOptions{Width: 12, Height: 9, Wrap: true, Seed: 42}
	assert.Equal(t, solve(opt), solve(opt))

	opt = GridOptions{Width: 12, Height: 9, Source: rand.NewPCG(3, 5)}
	first := solve(opt)
	opt.Source = rand.NewPCG(3, 5)
	assert.Equal(t, first, solve(opt))
}

func TestGridReseedReplays(t *testing.T) {
	g, err := NewGrid(colouring(4), GridOptions{Width: 8, Height: 8, Seed: 11})
	require.NoError(t, err)
	require.NoError(t, g.Run(context.Background()))
	first := g.Tiles()

	g.Reseed(11)
	assert.Equal(t, 0, g.Stats().Collapsed)
	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, first, g.Tiles())
}

func TestGridSamplingFollowsFrequencies(t *testing.T) {
	r := NewRules(2)
	r.Frequencies = []int{9, 1}
	r.Adjacency.AllowAll()
	g, err := NewGrid(r, GridOptions{Width: 1, Height: 1})
	require.NoError(t, err)

	zeros := 0
	for seed := range uint64(1000) {
		g.Reseed(seed)
		_, err := g.Step()
		require.NoError(t, err)
		if g.Tiles()[0][0] == 0 {
			zeros++
		}
	}
	assert.InDelta(t, 900, zeros, 50)
}

func TestGridMinimumEntropyFirst(t *testing.T) {
	g, err := NewGrid(chain(5), GridOptions{Width: 5, Height: 1, Seed: 2})
	require.NoError(t, err)
	// Cell 1 is left with {0,1}, cell 2 with {0,1,2}, the rest with more.
	_, err = g.Collapse(0, 0, 0)
	require.NoError(t, err)
	_, err = g.Step()
	require.NoError(t, err)
	assert.True(t, g.Cell(1, 0).IsCollapsed())
	assert.False(t, g.Cell(2, 0).IsCollapsed())
}

func TestGridBreaksEntropyTiesAtRandom(t *testing.T) {
	r := NewRules(1)
	r.Adjacency.AllowAll()
	g, err := NewGrid(r, GridOptions{Width: 5, Height: 5})
	require.NoError(t, err)

	picked := map[[2]int]int{}
	for seed := range uint64(400) {
		g.Reseed(seed)
		_, err := g.Step()
		require.NoError(t, err)
		require.Equal(t, 1, g.Stats().Collapsed)
		for y, row := range g.Tiles() {
			for x, tile := range row {
				if tile >= 0 {
					picked[[2]int{x, y}]++
				}
			}
		}
	}
	assert.GreaterOrEqual(t, len(picked), 20, "every cell ties, so picks spread over the grid")
	assert.Less(t, picked[[2]int{0, 0}], 60)
}

func TestGridCellIsDetached(t *testing.T) {
	g, err := NewGrid(chain(2), GridOptions{Width: 2, Height: 2, Seed: 4})
	require.NoError(t, err)

	c := g.Cell(0, 0)
	c.CollapseTo(1)
	c.RemoveCandidate(0)
	assert.False(t, g.Cell(0, 0).IsCollapsed())
	assert.Equal(t, []int{0, 1}, g.Cell(0, 0).Possible())

	require.NoError(t, g.Run(context.Background()))
	assert.True(t, g.Solved())
	assert.True(t, g.IsFinished())
	assert.Equal(t, 4, g.Stats().Collapsed)
}

func TestGridRunHonoursContext(t *testing.T) {
	g, err := NewGrid(chain(3), GridOptions{Width: 4, Height: 4})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Run(ctx), context.Canceled)
	assert.Equal(t, 0, g.Stats().Steps)
}

func TestNewGridErrors(t *testing.T) {
	_, err := NewGrid(NewRules(2), GridOptions{Width: 0, Height: 3})
	assert.ErrorIs(t, err, ErrInvalidOptions)
	_, err = NewGrid(nil, GridOptions{Width: 2, Height: 2})
	assert.ErrorIs(t, err, ErrEmptyTileSet)
	_, err = NewGridFromTileSet(nil, GridOptions{Width: 2, Height: 2})
	assert.ErrorIs(t, err, ErrEmptyTileSet)
}

func TestGridCellAt(t *testing.T) {
	g, err := NewGrid(chain(4), GridOptions{Width: 2, Height: 2})
	require.NoError(t, err)
	v := g.CellAt(1, 1)
	assert.Equal(t, 1, v.X)
	assert.Equal(t, 1, v.Y)
	assert.False(t, v.Collapsed)
	assert.Equal(t, -1, v.Tile)
	assert.Equal(t, 4, v.Count)
	assert.InDelta(t, 2.0, v.Entropy, 1e-12)
	assert.Nil(t, v.Pixels)

	_, err = g.Collapse(1, 1, 3)
	require.NoError(t, err)
	v = g.CellAt(1, 1)
	assert.True(t, v.Collapsed)
	assert.Equal(t, 3, v.Tile)
	assert.Equal(t, 0.0, v.Entropy)
	assert.Equal(t, 2, g.CellAt(0, 1).Count)
}
