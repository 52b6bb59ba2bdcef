package wavecollapse

import (
	"fmt"
	"image"
	"runtime"
)

// MatchMode selects how tile edges are compared.
type MatchMode int

const (
	// MatchExact requires facing edge strips to be byte-identical.
	MatchExact MatchMode = iota
	// MatchFuzzy accepts strips whose pixels mostly agree within a colour
	// tolerance.
	MatchFuzzy
)

func (m MatchMode) String() string {
	switch m {
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "exact"
	}
}

// ParseMatchMode parses "exact" or "fuzzy".
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "exact":
		return MatchExact, nil
	case "fuzzy":
		return MatchFuzzy, nil
	}
	return MatchExact, fmt.Errorf("%w: unknown match mode %q", ErrInvalidOptions, s)
}

type Options struct {
	// Side of the square kernel cut from a source image. Odd, at least 3.
	// Ignored for tile folders, whose tiles keep their own size.
	KernelSize int
	// Add the three quarter-turn rotations of every pattern.
	IncludeRotations bool
	// Add the vertical mirror of every pattern (and its rotations).
	IncludeFlips bool
	// Edge comparison mode.
	Match MatchMode
	// Width in pixels of the compared edge strips.
	// 1 compares the outermost row/column only; KernelSize-1 gives the
	// classic overlapping model where neighbouring patterns share all but one
	// row or column.
	EdgeWidth int
	// Fuzzy mode: max per-channel difference for two pixels to match (0..255).
	ColourTolerance int
	// Fuzzy mode: minimum fraction of matching pixels (0..1).
	MatchRatio float64
	// Fuzzy mode: longest tolerated run of consecutive mismatches.
	MaxMismatchRun int
	// Goroutines used for adjacency building. 0 means GOMAXPROCS.
	Workers int
}

// DefaultOptions returns options for image sources.
func DefaultOptions() Options {
	return Options{
		KernelSize:       3,
		IncludeRotations: true,
		IncludeFlips:     true,
		Match:            MatchFuzzy,
		EdgeWidth:        1,
		ColourTolerance:  10,
		MatchRatio:       0.9,
		MaxMismatchRun:   1,
	}
}

// FolderOptions returns options for tile folders, which match exactly.
func FolderOptions() Options {
	opt := DefaultOptions()
	opt.Match = MatchExact
	return opt
}

// OptionsFromSize scales the kernel with the source size. Small pixel-art
// sources keep 3x3 kernels; larger ones use 5 so patterns carry structure.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	if min(size.X, size.Y) >= 48 {
		opt.KernelSize = 5
	}
	return opt
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate checks every knob. folder skips the kernel checks.
func (o Options) Validate(folder bool) error {
	if !folder && (o.KernelSize < 3 || o.KernelSize%2 == 0) {
		return fmt.Errorf("%w: kernel size %d must be odd and at least 3", ErrInvalidOptions, o.KernelSize)
	}
	if o.EdgeWidth < 1 {
		return fmt.Errorf("%w: edge width %d", ErrInvalidOptions, o.EdgeWidth)
	}
	if !folder && o.EdgeWidth >= o.KernelSize {
		return fmt.Errorf("%w: edge width %d must be below kernel size %d", ErrInvalidOptions, o.EdgeWidth, o.KernelSize)
	}
	if o.ColourTolerance < 0 || o.ColourTolerance > 255 {
		return fmt.Errorf("%w: colour tolerance %d", ErrInvalidOptions, o.ColourTolerance)
	}
	if o.MatchRatio < 0 || o.MatchRatio > 1 {
		return fmt.Errorf("%w: match ratio %v", ErrInvalidOptions, o.MatchRatio)
	}
	if o.MaxMismatchRun < 0 {
		return fmt.Errorf("%w: max mismatch run %d", ErrInvalidOptions, o.MaxMismatchRun)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidOptions, o.Workers)
	}
	if o.Match != MatchExact && o.Match != MatchFuzzy {
		return fmt.Errorf("%w: match mode %d", ErrInvalidOptions, o.Match)
	}
	return nil
}
