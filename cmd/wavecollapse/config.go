package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/setanarut/wavecollapse"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of a run. Command line flags override
// values read from the file.
type Config struct {
	// Tile derivation.
	KernelSize       int     `yaml:"kernel_size"`
	IncludeRotations bool    `yaml:"include_rotations"`
	IncludeFlips     bool    `yaml:"include_flips"`
	Match            string  `yaml:"match"` // exact, fuzzy, or empty for the source default
	EdgeWidth        int     `yaml:"edge_width"`
	ColourTolerance  int     `yaml:"colour_tolerance"`
	MatchRatio       float64 `yaml:"match_ratio"`
	MaxMismatchRun   int     `yaml:"max_mismatch_run"`
	Workers          int     `yaml:"workers"`

	// Source quantization. 0 disables it.
	PaletteSize   int    `yaml:"palette_size"`
	PaletteMethod string `yaml:"palette_method"`

	// Solver.
	GridWidth  int     `yaml:"grid_width"`
	GridHeight int     `yaml:"grid_height"`
	Wrap       bool    `yaml:"wrap"`
	Seed       *uint64 `yaml:"seed,omitempty"`
	// Restarts with the next seed after a failure.
	Retries int `yaml:"retries"`

	// Output.
	RenderMode string `yaml:"render_mode"` // pixel, patch, or empty for the source default
	Scale      int    `yaml:"scale"`
	Output     string `yaml:"output"`
}

// DefaultConfig mirrors wavecollapse.DefaultOptions.
func DefaultConfig() Config {
	opt := wavecollapse.DefaultOptions()
	return Config{
		KernelSize:       opt.KernelSize,
		IncludeRotations: opt.IncludeRotations,
		IncludeFlips:     opt.IncludeFlips,
		EdgeWidth:        opt.EdgeWidth,
		ColourTolerance:  opt.ColourTolerance,
		MatchRatio:       opt.MatchRatio,
		MaxMismatchRun:   opt.MaxMismatchRun,
		PaletteMethod:    "dominantcolor",
		GridWidth:        48,
		GridHeight:       48,
		Retries:          3,
		Scale:            1,
		Output:           "out.png",
	}
}

// LoadConfig reads path over the defaults. Keys missing from the file keep
// their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.merge(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// TileOptions converts the tile knobs. folder selects the folder defaults
// for an empty match mode.
func (c Config) TileOptions(folder bool) (wavecollapse.Options, error) {
	opt := wavecollapse.DefaultOptions()
	if folder {
		opt = wavecollapse.FolderOptions()
	}
	opt.KernelSize = c.KernelSize
	opt.IncludeRotations = c.IncludeRotations
	opt.IncludeFlips = c.IncludeFlips
	opt.EdgeWidth = c.EdgeWidth
	opt.ColourTolerance = c.ColourTolerance
	opt.MatchRatio = c.MatchRatio
	opt.MaxMismatchRun = c.MaxMismatchRun
	opt.Workers = c.Workers
	if c.Match != "" {
		m, err := wavecollapse.ParseMatchMode(c.Match)
		if err != nil {
			return opt, err
		}
		opt.Match = m
	}
	return opt, opt.Validate(folder)
}

// RenderOptions converts the output knobs. Folders render whole tiles by
// default, images one pixel per cell.
func (c Config) RenderOptions(folder bool) (wavecollapse.RenderOptions, error) {
	opt := wavecollapse.RenderOptions{Mode: wavecollapse.RenderPixel, Scale: c.Scale}
	if folder {
		opt.Mode = wavecollapse.RenderPatch
	}
	if c.RenderMode != "" {
		m, err := wavecollapse.ParseRenderMode(c.RenderMode)
		if err != nil {
			return opt, err
		}
		opt.Mode = m
	}
	return opt, nil
}

// GridOptions returns the solver options, drawing a seed when none is set.
func (c Config) GridOptions() wavecollapse.GridOptions {
	seed := rand.Uint64()
	if c.Seed != nil {
		seed = *c.Seed
	}
	return wavecollapse.GridOptions{
		Width:  c.GridWidth,
		Height: c.GridHeight,
		Wrap:   c.Wrap,
		Seed:   seed,
	}
}
