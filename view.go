package wavecollapse

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// CellView is a read-only snapshot of one cell for renderers. After the grid
// fails the views describe the last explored state and are not a solution.
type CellView struct {
	X, Y      int
	Collapsed bool
	Tile      int // -1 unless collapsed
	Count     int
	Entropy   float64
	// Color is the anchor pixel of the collapsed tile, or the
	// frequency-weighted blend of every candidate's anchor pixel.
	Color colorful.Color
	// Pixels is the collapsed tile, nil otherwise or when the grid was built
	// without tiles.
	Pixels *Tile
}

// View is what renderers need from a grid.
type View interface {
	Width() int
	Height() int
	TileSize() image.Point
	CellAt(x, y int) CellView
}

// TileSize returns the pixel size of one tile, 1x1 for grids built from bare
// rules.
func (g *Grid) TileSize() image.Point {
	if len(g.tiles) == 0 {
		return image.Pt(1, 1)
	}
	return image.Pt(g.tiles[0].W, g.tiles[0].H)
}

// CellAt returns the view of the cell at (x, y).
func (g *Grid) CellAt(x, y int) CellView {
	c := &g.cells[y*g.width+x]
	v := CellView{
		X:         x,
		Y:         y,
		Collapsed: c.collapsed,
		Tile:      -1,
		Count:     c.count,
		Entropy:   c.Entropy(),
	}
	if c.collapsed {
		v.Tile = c.tile
		if len(g.tiles) > 0 {
			v.Pixels = g.tiles[c.tile]
		}
	}
	if len(g.anchors) > 0 {
		v.Color = g.blend(c)
	}
	return v
}

// blend mixes the anchor colours of c's candidates in linear RGB.
func (g *Grid) blend(c *Cell) colorful.Color {
	if c.count == 1 {
		return g.anchors[c.possible.first()]
	}
	if c.count == 0 || c.weightSum == 0 {
		return colorful.Color{}
	}
	var r, gr, b float64
	c.possible.each(func(id int) {
		w := g.weights[id] / c.weightSum
		lr, lg, lb := g.anchors[id].LinearRgb()
		r += w * lr
		gr += w * lg
		b += w * lb
	})
	return colorful.LinearRgb(r, gr, b).Clamped()
}

func anchorColors(tiles []*Tile) []colorful.Color {
	out := make([]colorful.Color, len(tiles))
	for i, t := range tiles {
		r, g, b := t.RGB(0, 0)
		out[i] = colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	}
	return out
}
