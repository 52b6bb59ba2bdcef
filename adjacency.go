package wavecollapse

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EdgeMatcher reports whether two facing edge strips are compatible. It must
// be symmetric so that the derived table is.
type EdgeMatcher func(a, b []uint8) bool

// MatchStripsExact accepts byte-identical strips.
func MatchStripsExact(a, b []uint8) bool {
	return string(a) == string(b)
}

// FuzzyMatcher returns a matcher where a pixel matches when every channel
// differs by at most tolerance, and two strips match when the matching
// fraction reaches ratio and no more than maxRun mismatches occur in a row.
func FuzzyMatcher(tolerance int, ratio float64, maxRun int) EdgeMatcher {
	return func(a, b []uint8) bool {
		if len(a) != len(b) || len(a) == 0 {
			return false
		}
		pixels := len(a) / 3
		matches, run, longest := 0, 0, 0
		for p := range pixels {
			off := p * 3
			if channelDiff(a[off], b[off]) <= tolerance &&
				channelDiff(a[off+1], b[off+1]) <= tolerance &&
				channelDiff(a[off+2], b[off+2]) <= tolerance {
				matches++
				run = 0
				continue
			}
			run++
			longest = max(longest, run)
		}
		return float64(matches)/float64(pixels) >= ratio && longest <= maxRun
	}
}

func channelDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func (o Options) matcher() EdgeMatcher {
	if o.Match == MatchFuzzy {
		return FuzzyMatcher(o.ColourTolerance, o.MatchRatio, o.MaxMismatchRun)
	}
	return MatchStripsExact
}

// BuildAdjacency derives the adjacency table of tiles from their edge strips.
// Comparisons run on up to opt.Workers goroutines; each task writes one row of
// the table only.
func BuildAdjacency(ctx context.Context, tiles []*Tile, opt Options) (*AdjacencyTable, error) {
	cache := newEdgeCache(tiles, opt.EdgeWidth)
	if err := cache.compare(ctx, opt.matcher(), opt.workers()); err != nil {
		return nil, err
	}
	table := NewAdjacencyTable(len(tiles))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opt.workers())
	for i := range tiles {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			for _, d := range Directions {
				row := table.allowed[i][d]
				for j := range tiles {
					if cache.accepts(i, d, j) {
						row.set(j)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	Logger().Debug("adjacency built",
		"tiles", len(tiles),
		"strips", cache.distinct(),
		"pairs", table.Count(),
		"match", opt.Match.String())
	return table, nil
}
