package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/wavecollapse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTone() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			c := color.RGBA{R: 10, G: 10, B: 10, A: 255}
			if x >= 4 {
				c = color.RGBA{R: 240, G: 240, B: 240, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// gradient has 64 distinct colors, dark on the left and light on the right.
func gradient() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			v := uint8(x*30 + y)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: uint8(y * 3), A: 255})
		}
	}
	return img
}

func TestNearest(t *testing.T) {
	palette := []colorful.Color{{}, {R: 1, G: 1, B: 1}, {R: 1}}
	assert.Equal(t, 1, Nearest(palette, colorful.Color{R: 0.8, G: 0.8, B: 0.8}))
	assert.Equal(t, 0, Nearest(palette, colorful.Color{R: 0.1, G: 0.1, B: 0.1}))
	assert.Equal(t, 2, Nearest(palette, colorful.Color{R: 0.9, G: 0.1, B: 0.1}))
	assert.Equal(t, -1, Nearest(nil, colorful.Color{}))
}

func TestQuantize(t *testing.T) {
	src := twoTone()
	src.SetRGBA(1, 1, color.RGBA{R: 60, G: 50, B: 50, A: 255})
	palette := []colorful.Color{{}, {R: 1, G: 1, B: 1}}

	out := Quantize(src, palette)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(7, 7))
}

func TestQuantizeImage(t *testing.T) {
	src := twoTone()
	same, palette := QuantizeImage(src, 0, PaletteMethodKMeans)
	assert.Same(t, src, same)
	assert.Nil(t, palette)

	src = gradient()
	for _, method := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		t.Run(method.String(), func(t *testing.T) {
			out, palette := QuantizeImage(src, 2, method)
			require.NotEmpty(t, palette)
			assert.LessOrEqual(t, len(palette), 2)
			assert.Equal(t, src.Bounds(), out.Bounds())
			colors := map[color.Color]bool{}
			for y := range 8 {
				for x := range 8 {
					colors[out.At(x, y)] = true
				}
			}
			assert.LessOrEqual(t, len(colors), len(palette))
		})
	}
}

func TestMarkTransitions(t *testing.T) {
	cands := []weightedColor{
		{Col: colorful.Color{}, Weight: 1},
		{Col: colorful.Color{R: 1, G: 1, B: 1}, Weight: 1},
		{Col: colorful.Color{R: 0.5, G: 0.5, B: 0.5}, Weight: 1},
	}
	markTransitions(twoTone(), cands)
	assert.InDelta(t, 1, cands[0].Edge, 1e-9)
	assert.InDelta(t, 1, cands[1].Edge, 1e-9)
	assert.Zero(t, cands[2].Edge, "gray never appears")
}

func TestSelectDiversePrefersBoundaryColors(t *testing.T) {
	flat := colorful.Color{R: 0.8}
	boundary := colorful.Color{R: 0.78}
	cands := []weightedColor{
		{Col: colorful.Color{}, Weight: 10},
		{Col: flat, Weight: 1},
		{Col: boundary, Weight: 1, Edge: 1},
	}
	out := selectDiverse(cands, 2)
	require.Len(t, out, 2)
	assert.Equal(t, colorful.Color{}, out[0])
	assert.Equal(t, boundary, out[1])
}

func TestSortPaletteByBrightness(t *testing.T) {
	palette := []colorful.Color{{R: 1, G: 1, B: 1}, {}, {R: 0.5, G: 0.5, B: 0.5}}
	SortPaletteByBrightness(palette)
	assert.Equal(t, colorful.Color{}, palette[0])
	assert.Equal(t, colorful.Color{R: 1, G: 1, B: 1}, palette[2])
}

func TestParsePaletteMethod(t *testing.T) {
	m, err := ParsePaletteMethod("kmeans")
	require.NoError(t, err)
	assert.Equal(t, PaletteMethodKMeans, m)
	m, err = ParsePaletteMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaletteMethodDominantColor, m)
	_, err = ParsePaletteMethod("median-cut")
	assert.ErrorIs(t, err, wavecollapse.ErrInvalidOptions)
}

func TestPaletteImage(t *testing.T) {
	_, err := PaletteImage(nil, 4)
	assert.Error(t, err)

	img, err := PaletteImage([]colorful.Color{{R: 1}, {B: 1}}, 4)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(4, 0))
}

func TestTileSheet(t *testing.T) {
	tiles := make([]*wavecollapse.Tile, 3)
	for i := range tiles {
		tiles[i] = &wavecollapse.Tile{ID: i, W: 2, H: 2, Pix: make([]uint8, 12)}
		for p := 0; p < 12; p += 3 {
			tiles[i].Pix[p] = uint8(100 * i)
		}
	}
	sheet := TileSheet(tiles, 2)
	assert.Equal(t, image.Rect(0, 0, 5, 5), sheet.Bounds())
	assert.Equal(t, uint8(100), sheet.RGBAAt(3, 0).R)
	assert.Equal(t, uint8(200), sheet.RGBAAt(1, 4).R)
	assert.Zero(t, sheet.RGBAAt(2, 0).A, "gap stays transparent")

	assert.True(t, TileSheet(nil, 4).Bounds().Empty())
}

func TestSaveImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, SaveImage(twoTone(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())

	assert.Error(t, SaveImage(twoTone(), filepath.Join(t.TempDir(), "missing", "out.png")))
}
