package utils

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Quantize maps every pixel of img to the nearest palette color in Lab
// space. Alpha is dropped. Quantized sources give the edge matcher exact
// colors to compare.
func Quantize(img image.Image, palette []colorful.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if len(palette) == 0 {
		for y := range b.Dy() {
			for x := range b.Dx() {
				out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return out
	}
	mapped := make([]color.RGBA, len(palette))
	for i, c := range palette {
		r, g, bl := c.Clamped().RGB255()
		mapped[i] = color.RGBA{R: r, G: g, B: bl, A: 255}
	}
	seen := make(map[color.RGBA]int)
	for y := range b.Dy() {
		for x := range b.Dx() {
			src := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			src.A = 255
			idx, ok := seen[src]
			if !ok {
				idx = Nearest(palette, colorful.Color{
					R: float64(src.R) / 255.0,
					G: float64(src.G) / 255.0,
					B: float64(src.B) / 255.0,
				})
				seen[src] = idx
			}
			out.SetRGBA(x, y, mapped[idx])
		}
	}
	return out
}

// Nearest returns the index of the palette color closest to c in Lab, or -1
// for an empty palette.
func Nearest(palette []colorful.Color, c colorful.Color) int {
	best, bestD := -1, 0.0
	for i, p := range palette {
		d := c.DistanceLab(p)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// QuantizeImage extracts a k color palette with method and quantizes img
// with it. k <= 0 returns img unchanged.
func QuantizeImage(img image.Image, k int, method PaletteMethod) (image.Image, []colorful.Color) {
	if k <= 0 {
		return img, nil
	}
	palette := ExtractPalette(img, k, method)
	SortPaletteByBrightness(palette)
	return Quantize(img, palette), palette
}
