package wavecollapse

import (
	"context"
	"fmt"
	"image"
	"os"
)

// TileSet is the derived rule set of a source: distinct tiles, their
// adjacency and their frequencies.
type TileSet struct {
	Tiles       []*Tile
	Adjacency   *AdjacencyTable
	Frequencies FrequencyTable
	// Number of patterns extracted before deduplication.
	Extracted int
	Options   Options
}

// Len returns the number of distinct tiles.
func (ts *TileSet) Len() int { return len(ts.Tiles) }

// TileSize returns the size shared by every tile.
func (ts *TileSet) TileSize() image.Point {
	if len(ts.Tiles) == 0 {
		return image.Point{}
	}
	return image.Pt(ts.Tiles[0].W, ts.Tiles[0].H)
}

// Rules returns the solver view of the tile set.
func (ts *TileSet) Rules() *Rules {
	return &Rules{Adjacency: ts.Adjacency, Frequencies: ts.Frequencies}
}

// tileCollector deduplicates patterns by content and assigns ids in
// first-seen order.
type tileCollector struct {
	index     map[string]int
	tiles     []*Tile
	freq      FrequencyTable
	extracted int
}

func newTileCollector() *tileCollector {
	return &tileCollector{index: make(map[string]int)}
}

func (c *tileCollector) add(t *Tile) {
	c.extracted++
	k := t.key()
	if id, ok := c.index[k]; ok {
		c.freq[id]++
		return
	}
	t.ID = len(c.tiles)
	c.index[k] = t.ID
	c.tiles = append(c.tiles, t)
	c.freq = append(c.freq, 1)
}

func (c *tileCollector) build(ctx context.Context, opt Options) (*TileSet, error) {
	if len(c.tiles) == 0 {
		return nil, ErrEmptyTileSet
	}
	adj, err := BuildAdjacency(ctx, c.tiles, opt)
	if err != nil {
		return nil, err
	}
	Logger().Debug("tile set built",
		"tiles", len(c.tiles),
		"extracted", c.extracted,
		"size", fmt.Sprintf("%dx%d", c.tiles[0].W, c.tiles[0].H))
	return &TileSet{
		Tiles:       c.tiles,
		Adjacency:   adj,
		Frequencies: c.freq,
		Extracted:   c.extracted,
		Options:     opt,
	}, nil
}

// NewTileSetFromImage cuts a KernelSize square pattern at every pixel of img,
// wrapping around the image edges, and derives a tile set from them.
func NewTileSetFromImage(img image.Image, opt Options) (*TileSet, error) {
	return NewTileSetFromImageContext(context.Background(), img, opt)
}

// NewTileSetFromImageContext is NewTileSetFromImage with cancellation of the
// adjacency build.
func NewTileSetFromImageContext(ctx context.Context, img image.Image, opt Options) (*TileSet, error) {
	if err := opt.Validate(false); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrInvalidSourceFormat)
	}
	src := newTileFromImage(img)
	k := opt.KernelSize
	c := newTileCollector()
	for y := range src.H {
		for x := range src.W {
			for _, v := range kernelAt(src, x, y, k).variants(opt.IncludeRotations, opt.IncludeFlips) {
				c.add(v)
			}
		}
	}
	return c.build(ctx, opt)
}

// kernelAt returns the k*k patch anchored at (x, y), sampled toroidally.
func kernelAt(src *Tile, x, y, k int) *Tile {
	t := &Tile{ID: -1, W: k, H: k, Pix: make([]uint8, k*k*3)}
	for dy := range k {
		sy := (y + dy) % src.H
		for dx := range k {
			sx := (x + dx) % src.W
			copy(t.Pix[pixOffset(k, dx, dy):][:3], src.Pix[pixOffset(src.W, sx, sy):][:3])
		}
	}
	return t
}

// NewTileSetFromTiles derives a tile set from equally sized tile images.
func NewTileSetFromTiles(images []image.Image, opt Options) (*TileSet, error) {
	return NewTileSetFromTilesContext(context.Background(), images, opt)
}

// NewTileSetFromTilesContext is NewTileSetFromTiles with cancellation of the
// adjacency build.
func NewTileSetFromTilesContext(ctx context.Context, images []image.Image, opt Options) (*TileSet, error) {
	if err := opt.Validate(true); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrEmptyTileSet
	}
	size := images[0].Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("%w: empty tile", ErrInvalidSourceFormat)
	}
	if opt.IncludeRotations && size.X != size.Y {
		return nil, fmt.Errorf("%w: rotations need square tiles, got %dx%d", ErrInvalidSourceFormat, size.X, size.Y)
	}
	if opt.EdgeWidth > min(size.X, size.Y) {
		return nil, fmt.Errorf("%w: edge width %d exceeds tile size %dx%d", ErrInvalidOptions, opt.EdgeWidth, size.X, size.Y)
	}
	c := newTileCollector()
	for i, img := range images {
		if got := img.Bounds().Size(); got != size {
			return nil, fmt.Errorf("%w: tile %d is %dx%d, want %dx%d", ErrInvalidSourceFormat, i, got.X, got.Y, size.X, size.Y)
		}
		for _, v := range newTileFromImage(img).variants(opt.IncludeRotations, opt.IncludeFlips) {
			c.add(v)
		}
	}
	return c.build(ctx, opt)
}

// NewTileSetFromFolder reads every image in dir, in lexical order, as a tile.
func NewTileSetFromFolder(dir string, opt Options) (*TileSet, error) {
	images, err := ReadSourceFolder(dir)
	if err != nil {
		return nil, err
	}
	return NewTileSetFromTiles(images, opt)
}

// LoadTileSet builds from a folder of tiles or a single source image,
// depending on what path points to.
func LoadTileSet(ctx context.Context, path string, opt Options) (*TileSet, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSourceFormat, err)
	}
	if fi.IsDir() {
		images, err := ReadSourceFolder(path)
		if err != nil {
			return nil, err
		}
		return NewTileSetFromTilesContext(ctx, images, opt)
	}
	img, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return NewTileSetFromImageContext(ctx, img, opt)
}
