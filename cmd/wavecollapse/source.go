package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/setanarut/wavecollapse"
	"github.com/setanarut/wavecollapse/utils"
)

// source is a loaded tile set and how it should be rendered.
type source struct {
	tiles  *wavecollapse.TileSet
	folder bool
	render wavecollapse.RenderOptions
}

func (a *app) loadSource(ctx context.Context, path string) (*source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	folder := fi.IsDir()
	opt, err := a.cfg.TileOptions(folder)
	if err != nil {
		return nil, err
	}
	render, err := a.cfg.RenderOptions(folder)
	if err != nil {
		return nil, err
	}

	var ts *wavecollapse.TileSet
	if folder {
		images, err := wavecollapse.ReadSourceFolder(path)
		if err != nil {
			return nil, err
		}
		ts, err = wavecollapse.NewTileSetFromTilesContext(ctx, images, opt)
		if err != nil {
			return nil, err
		}
	} else {
		img, err := wavecollapse.ReadSource(path)
		if err != nil {
			return nil, err
		}
		if a.cfg.PaletteSize > 0 {
			method, err := utils.ParsePaletteMethod(a.cfg.PaletteMethod)
			if err != nil {
				return nil, err
			}
			img, _ = utils.QuantizeImage(img, a.cfg.PaletteSize, method)
			a.log.Debug("source quantized", "colors", a.cfg.PaletteSize, "method", method.String())
		}
		ts, err = wavecollapse.NewTileSetFromImageContext(ctx, img, opt)
		if err != nil {
			return nil, err
		}
	}
	a.log.Info("tile set ready",
		"source", path,
		"tiles", ts.Len(),
		"extracted", ts.Extracted,
		"match", opt.Match.String())
	return &source{tiles: ts, folder: folder, render: render}, nil
}

// solve runs a grid over src, restarting with the next seed after a failure
// up to the configured number of retries.
func (a *app) solve(ctx context.Context, src *source) (*wavecollapse.Grid, error) {
	gopt := a.cfg.GridOptions()
	g, err := wavecollapse.NewGridFromTileSet(src.tiles, gopt)
	if err != nil {
		return nil, err
	}
	seed := gopt.Seed
	for attempt := 0; ; attempt++ {
		a.log.Info("solving", "width", gopt.Width, "height", gopt.Height, "seed", seed, "attempt", attempt+1)
		err := g.Run(ctx)
		if err == nil {
			st := g.Stats()
			a.log.Info("solved", "steps", st.Steps, "backtracks", st.Backtracks)
			return g, nil
		}
		if !errors.Is(err, wavecollapse.ErrSolverFailure) || attempt >= a.cfg.Retries {
			return g, fmt.Errorf("seed %d: %w", seed, err)
		}
		seed++
		a.log.Warn("solver failed, retrying", "next_seed", seed)
		g.Reseed(seed)
	}
}
