package wavecollapse

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// stripPool interns edge strips by content.
type stripPool struct {
	ids    map[string]int
	strips [][]uint8
	memo   [][]bool // memo[a][b]: strip a accepts strip b
}

func (p *stripPool) intern(s []uint8) int {
	if id, ok := p.ids[string(s)]; ok {
		return id
	}
	id := len(p.strips)
	p.ids[string(s)] = id
	p.strips = append(p.strips, s)
	return id
}

// edgeCache holds the distinct edge strips of one tile set and the result of
// comparing every facing pair. It lives for a single adjacency build.
type edgeCache struct {
	vertical   stripPool // north and south strips
	horizontal stripPool // east and west strips
	strip      [][4]int  // strip id per tile and direction
}

func newEdgeCache(tiles []*Tile, width int) *edgeCache {
	c := &edgeCache{
		vertical:   stripPool{ids: make(map[string]int)},
		horizontal: stripPool{ids: make(map[string]int)},
		strip:      make([][4]int, len(tiles)),
	}
	for i, t := range tiles {
		for _, d := range Directions {
			c.strip[i][d] = c.pool(d).intern(t.Edge(d, width))
		}
	}
	return c
}

func (c *edgeCache) pool(d Direction) *stripPool {
	if d == North || d == South {
		return &c.vertical
	}
	return &c.horizontal
}

// compare fills both memo tables, one strip row per task.
func (c *edgeCache) compare(ctx context.Context, match EdgeMatcher, workers int) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range []*stripPool{&c.vertical, &c.horizontal} {
		p.memo = make([][]bool, len(p.strips))
		for a := range p.strips {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				row := make([]bool, len(p.strips))
				for b := range p.strips {
					row[b] = match(p.strips[a], p.strips[b])
				}
				p.memo[a] = row
				return nil
			})
		}
	}
	return g.Wait()
}

// accepts reports whether tile j may sit in direction d of tile i.
func (c *edgeCache) accepts(i int, d Direction, j int) bool {
	return c.pool(d).memo[c.strip[i][d]][c.strip[j][d.Opposite()]]
}

// distinct returns the number of interned strips.
func (c *edgeCache) distinct() int {
	return len(c.vertical.strips) + len(c.horizontal.strips)
}
