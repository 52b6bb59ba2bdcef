package utils

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/wavecollapse"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParsePaletteMethod parses "dominantcolor" or "kmeans".
func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "dominantcolor", "dominant", "":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return PaletteMethodDominantColor, fmt.Errorf("%w: unknown palette method %q", wavecollapse.ErrInvalidOptions, s)
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
	// Edge is the share of the color's pixels that touch another color,
	// scaled so the busiest candidate is 1.
	Edge float64
}

// SortPaletteByBrightness orders colors from darkest to brightest by relative
// luminance.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ya, yb := luminance(a), luminance(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// DominantPalette picks k diverse colors from the dominant colors of img.
func DominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	markTransitions(img, weighted)
	return selectDiverse(weighted, k)
}

// KMeansPalette clusters the pixels of img in RGB and picks k diverse cluster
// centers, most populated first.
func KMeansPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	step := sampleStep(width, height)
	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(max(k*4, k+2), len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})
	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		weighted = append(weighted, weightedColor{
			Col:    colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped(),
			Weight: float64(len(c.Observations)),
		})
	}
	markTransitions(img, weighted)
	return selectDiverse(weighted, k)
}

// maxSamples caps the pixels read from large sources.
const maxSamples = 12000

func sampleStep(width, height int) int {
	if width*height <= maxSamples {
		return 1
	}
	return int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
}

// markTransitions sets Edge on every candidate from the sampled pixels of img.
// A pixel counts for its nearest candidate when a horizontal or vertical
// neighbour maps to a different one. Those boundary colors are what the edge
// matcher compares, so losing one merges tiles that should stay apart.
func markTransitions(img image.Image, cands []weightedColor) {
	b := img.Bounds()
	if len(cands) < 2 || b.Empty() {
		return
	}
	palette := make([]colorful.Color, len(cands))
	for i, c := range cands {
		palette[i] = c.Col
	}
	step := sampleStep(b.Dx(), b.Dy())
	cols := (b.Dx() + step - 1) / step
	rows := (b.Dy() + step - 1) / step
	labels := make([]int, cols*rows)
	seen := make(map[color.RGBA]int)
	for ry := range rows {
		for rx := range cols {
			px := color.RGBAModel.Convert(img.At(b.Min.X+rx*step, b.Min.Y+ry*step)).(color.RGBA)
			px.A = 255
			idx, ok := seen[px]
			if !ok {
				idx = Nearest(palette, colorful.Color{
					R: float64(px.R) / 255.0,
					G: float64(px.G) / 255.0,
					B: float64(px.B) / 255.0,
				})
				seen[px] = idx
			}
			labels[ry*cols+rx] = idx
		}
	}

	border := make([]bool, len(labels))
	for ry := range rows {
		for rx := range cols {
			i := ry*cols + rx
			if rx+1 < cols && labels[i+1] != labels[i] {
				border[i], border[i+1] = true, true
			}
			if ry+1 < rows && labels[i+cols] != labels[i] {
				border[i], border[i+cols] = true, true
			}
		}
	}
	touching := make([]float64, len(cands))
	total := make([]float64, len(cands))
	for i, l := range labels {
		total[l]++
		if border[i] {
			touching[l]++
		}
	}
	peak := 0.0
	for i := range cands {
		cands[i].Edge = 0
		if total[i] > 0 {
			cands[i].Edge = touching[i] / total[i]
		}
		peak = max(peak, cands[i].Edge)
	}
	if peak == 0 {
		return
	}
	for i := range cands {
		cands[i].Edge /= peak
	}
}

// selectDiverse starts from the heaviest candidate and greedily adds the one
// farthest in Lab from those already chosen, biased toward heavy colors and
// colors that sit on region boundaries.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	for i := range cands {
		cands[i].Weight = max(cands[i].Weight, 1e-6)
		maxW = max(maxW, cands[i].Weight)
	}
	seed := 0
	for i := range cands {
		if cands[i].Weight > cands[seed].Weight {
			seed = i
		}
	}
	chosen := []int{seed}
	taken := make([]bool, len(cands))
	taken[seed] = true
	for len(chosen) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if taken[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, s := range chosen {
				nearest = min(nearest, c.Col.DistanceLab(cands[s].Col))
			}
			score := nearest * (0.55 + 0.45*math.Sqrt(c.Weight/maxW)) * (1 + 0.5*c.Edge)
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		chosen = append(chosen, best)
	}
	out := make([]colorful.Color, len(chosen))
	for i, idx := range chosen {
		out[i] = cands[idx].Col
	}
	return out
}

// ExtractPalette returns up to k colors of img. KMeans falls back to the
// dominant color method when clustering yields nothing.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []colorful.Color {
	if method == PaletteMethodKMeans {
		if p := KMeansPalette(img, k); len(p) != 0 {
			return p
		}
		wavecollapse.Logger().Warn("kmeans returned an empty palette, falling back to dominantcolor", "k", k)
	}
	return DominantPalette(img, k)
}
