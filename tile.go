package wavecollapse

import (
	"image"
	"image/color"
)

// Tile is an immutable RGB pixel patch.
type Tile struct {
	ID   int
	W, H int
	Pix  []uint8 // Interleaved RGB, len = W*H*3
}

func pixOffset(w, x, y int) int {
	return (y*w + x) * 3
}

// newTileFromImage copies img into a tile. Alpha is dropped.
func newTileFromImage(img image.Image) *Tile {
	b := img.Bounds()
	t := &Tile{ID: -1, W: b.Dx(), H: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy()*3)}
	for y := range t.H {
		for x := range t.W {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := pixOffset(t.W, x, y)
			t.Pix[off] = uint8(r >> 8)
			t.Pix[off+1] = uint8(g >> 8)
			t.Pix[off+2] = uint8(bl >> 8)
		}
	}
	return t
}

// RGB returns the pixel at (x, y).
func (t *Tile) RGB(x, y int) (r, g, b uint8) {
	off := pixOffset(t.W, x, y)
	return t.Pix[off], t.Pix[off+1], t.Pix[off+2]
}

// Rotate90 returns the tile rotated a quarter turn counter-clockwise.
func (t *Tile) Rotate90() *Tile {
	out := &Tile{ID: -1, W: t.H, H: t.W, Pix: make([]uint8, len(t.Pix))}
	for y := range out.H {
		for x := range out.W {
			copy(out.Pix[pixOffset(out.W, x, y):][:3], t.Pix[pixOffset(t.W, t.W-1-y, x):][:3])
		}
	}
	return out
}

// FlipVertical returns the tile with its rows in reverse order.
func (t *Tile) FlipVertical() *Tile {
	out := &Tile{ID: -1, W: t.W, H: t.H, Pix: make([]uint8, len(t.Pix))}
	row := t.W * 3
	for y := range t.H {
		copy(out.Pix[y*row:(y+1)*row], t.Pix[(t.H-1-y)*row:(t.H-y)*row])
	}
	return out
}

// Edge returns the strip of the given width along side d. North and south
// strips are row-major; east and west strips hold width pixels per row, top to
// bottom, so facing strips line up pixel for pixel.
func (t *Tile) Edge(d Direction, width int) []uint8 {
	switch d {
	case North:
		return t.rows(0, width)
	case South:
		return t.rows(t.H-width, width)
	case East:
		return t.cols(t.W-width, width)
	default:
		return t.cols(0, width)
	}
}

func (t *Tile) rows(y0, n int) []uint8 {
	row := t.W * 3
	return append([]uint8(nil), t.Pix[y0*row:(y0+n)*row]...)
}

func (t *Tile) cols(x0, n int) []uint8 {
	out := make([]uint8, 0, t.H*n*3)
	for y := range t.H {
		out = append(out, t.Pix[pixOffset(t.W, x0, y):pixOffset(t.W, x0+n, y)]...)
	}
	return out
}

// Image returns the tile as an RGBA image.
func (t *Tile) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.W, t.H))
	for y := range t.H {
		for x := range t.W {
			r, g, b := t.RGB(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// key identifies the tile by size and pixel content.
func (t *Tile) key() string {
	return string([]byte{byte(t.W), byte(t.W >> 8), byte(t.H), byte(t.H >> 8)}) + string(t.Pix)
}

// variants returns the tile followed by its rotations and flips in id order:
// base, rot90, rot180, rot270, then the vertical flip and its rotations.
func (t *Tile) variants(rotations, flips bool) []*Tile {
	out := []*Tile{t}
	if rotations {
		r := t
		for range 3 {
			r = r.Rotate90()
			out = append(out, r)
		}
	}
	if flips {
		f := t.FlipVertical()
		out = append(out, f)
		if rotations {
			for range 3 {
				f = f.Rotate90()
				out = append(out, f)
			}
		}
	}
	return out
}
