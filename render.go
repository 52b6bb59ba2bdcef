package wavecollapse

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RenderMode selects how a cell becomes pixels.
type RenderMode int

const (
	// RenderPixel draws one pixel per cell from CellView.Color. This is the
	// usual output of the overlapping model.
	RenderPixel RenderMode = iota
	// RenderPatch draws the whole collapsed tile per cell and fills
	// uncollapsed cells with their blended colour.
	RenderPatch
)

func (m RenderMode) String() string {
	switch m {
	case RenderPatch:
		return "patch"
	default:
		return "pixel"
	}
}

// ParseRenderMode parses "pixel" or "patch".
func ParseRenderMode(s string) (RenderMode, error) {
	switch s {
	case "pixel":
		return RenderPixel, nil
	case "patch":
		return RenderPatch, nil
	}
	return RenderPixel, fmt.Errorf("%w: unknown render mode %q", ErrInvalidOptions, s)
}

type RenderOptions struct {
	Mode RenderMode
	// Nearest-neighbour upscale factor. Values below 2 keep the native size.
	Scale int
}

// Render draws v into a new image.
func Render(v View, opt RenderOptions) *image.RGBA {
	var img *image.RGBA
	if opt.Mode == RenderPatch {
		img = renderPatches(v)
	} else {
		img = renderPixels(v)
	}
	if opt.Scale < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*opt.Scale, b.Dy()*opt.Scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func renderPixels(v View) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.Width(), v.Height()))
	for y := range v.Height() {
		for x := range v.Width() {
			img.SetRGBA(x, y, toRGBA(v.CellAt(x, y)))
		}
	}
	return img
}

func renderPatches(v View) *image.RGBA {
	ts := v.TileSize()
	img := image.NewRGBA(image.Rect(0, 0, v.Width()*ts.X, v.Height()*ts.Y))
	for y := range v.Height() {
		for x := range v.Width() {
			cv := v.CellAt(x, y)
			r := image.Rect(x*ts.X, y*ts.Y, (x+1)*ts.X, (y+1)*ts.Y)
			if cv.Pixels != nil {
				draw.Draw(img, r, cv.Pixels.Image(), image.Point{}, draw.Src)
				continue
			}
			draw.Draw(img, r, &image.Uniform{C: toRGBA(cv)}, image.Point{}, draw.Src)
		}
	}
	return img
}

func toRGBA(cv CellView) color.RGBA {
	r, g, b := cv.Color.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
