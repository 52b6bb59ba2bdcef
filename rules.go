package wavecollapse

import "fmt"

// AdjacencyTable records which tiles may sit next to each other.
// allowed[i][d] holds every tile j that may be placed in direction d of tile i.
type AdjacencyTable struct {
	n       int
	allowed [][4]bitset
}

// NewAdjacencyTable returns an empty table for n tiles.
func NewAdjacencyTable(n int) *AdjacencyTable {
	a := &AdjacencyTable{n: n, allowed: make([][4]bitset, n)}
	for i := range n {
		for _, d := range Directions {
			a.allowed[i][d] = newBitset(n)
		}
	}
	return a
}

// Len returns the number of tiles.
func (a *AdjacencyTable) Len() int { return a.n }

// Allow permits j in direction d of i, and i in the opposite direction of j.
func (a *AdjacencyTable) Allow(i int, d Direction, j int) {
	a.allowed[i][d].set(j)
	a.allowed[j][d.Opposite()].set(i)
}

// Forbid removes the pairing in both directions.
func (a *AdjacencyTable) Forbid(i int, d Direction, j int) {
	a.allowed[i][d].clear(j)
	a.allowed[j][d.Opposite()].clear(i)
}

// AllowAll makes every pair compatible in every direction.
func (a *AdjacencyTable) AllowAll() {
	for i := range a.n {
		for _, d := range Directions {
			a.allowed[i][d].fill(a.n)
		}
	}
}

// Allowed reports whether j may be placed in direction d of i.
func (a *AdjacencyTable) Allowed(i int, d Direction, j int) bool {
	return a.allowed[i][d].has(j)
}

// Neighbors returns the ids allowed in direction d of i.
func (a *AdjacencyTable) Neighbors(i int, d Direction) []int {
	return a.allowed[i][d].ids()
}

// Count returns the number of allowed (i, d, j) triples.
func (a *AdjacencyTable) Count() int {
	n := 0
	for i := range a.n {
		for _, d := range Directions {
			n += a.allowed[i][d].count()
		}
	}
	return n
}

// Symmetric checks allowed[i][d][j] == allowed[j][opposite(d)][i] for all entries.
func (a *AdjacencyTable) Symmetric() bool {
	for i := range a.n {
		for _, d := range Directions {
			for j := range a.n {
				if a.allowed[i][d].has(j) != a.allowed[j][d.Opposite()].has(i) {
					return false
				}
			}
		}
	}
	return true
}

// Rules bundles what the solver needs from a tile set.
type Rules struct {
	Adjacency   *AdjacencyTable
	Frequencies []int
}

// NewRules returns rules for n tiles with frequency 1 and no adjacencies.
func NewRules(n int) *Rules {
	freq := make([]int, n)
	for i := range freq {
		freq[i] = 1
	}
	return &Rules{Adjacency: NewAdjacencyTable(n), Frequencies: freq}
}

// Len returns the number of tiles.
func (r *Rules) Len() int { return len(r.Frequencies) }

// Validate checks shapes and frequencies. A frequency of 0 disables a tile;
// at least one tile must remain.
func (r *Rules) Validate() error {
	if r == nil || len(r.Frequencies) == 0 {
		return ErrEmptyTileSet
	}
	if r.Adjacency == nil || r.Adjacency.Len() != len(r.Frequencies) {
		return fmt.Errorf("%w: adjacency table does not match %d frequencies", ErrInvalidOptions, len(r.Frequencies))
	}
	live := 0
	for id, f := range r.Frequencies {
		if f < 0 {
			return fmt.Errorf("%w: tile %d has frequency %d", ErrInvalidOptions, id, f)
		}
		if f > 0 {
			live++
		}
	}
	if live == 0 {
		return ErrEmptyTileSet
	}
	return nil
}
