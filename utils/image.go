package utils

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/wavecollapse"
)

// SaveImage writes img as PNG.
func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PaletteImage draws one tileSize square per palette color, left to right.
func PaletteImage(palette []colorful.Color, tileSize int) (*image.RGBA, error) {
	if len(palette) == 0 {
		return nil, errors.New("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	img := image.NewRGBA(image.Rect(0, 0, tileSize*len(palette), tileSize))
	for i, c := range palette {
		r, g, b := c.Clamped().RGB255()
		rect := image.Rect(i*tileSize, 0, (i+1)*tileSize, tileSize)
		draw.Draw(img, rect, &image.Uniform{C: color.RGBA{R: r, G: g, B: b, A: 255}}, image.Point{}, draw.Src)
	}
	return img, nil
}

// SavePalette writes PaletteImage as PNG.
func SavePalette(palette []colorful.Color, tileSize int, filename string) error {
	img, err := PaletteImage(palette, tileSize)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}

// TileSheet lays tiles out in rows of columns, separated by a one pixel gap.
func TileSheet(tiles []*wavecollapse.Tile, columns int) *image.RGBA {
	if len(tiles) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	columns = max(1, min(columns, len(tiles)))
	rows := (len(tiles) + columns - 1) / columns
	tw, th := tiles[0].W+1, tiles[0].H+1
	img := image.NewRGBA(image.Rect(0, 0, columns*tw-1, rows*th-1))
	for i, t := range tiles {
		x, y := (i%columns)*tw, (i/columns)*th
		draw.Draw(img, image.Rect(x, y, x+t.W, y+t.H), t.Image(), image.Point{}, draw.Src)
	}
	return img
}
