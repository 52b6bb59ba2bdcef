package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/setanarut/wavecollapse"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app carries state shared by every command of one invocation.
type app struct {
	cfg        Config
	configPath string
	logLevel   string
	seed       uint64
	log        *slog.Logger
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{cfg: DefaultConfig()}
	root := &cobra.Command{
		Use:           "wavecollapse",
		Short:         "Generate images with wave function collapse",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, stderr)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "info", "debug, info, warn or error")

	pf.IntVarP(&a.cfg.KernelSize, "kernel-size", "k", a.cfg.KernelSize, "pattern size for image sources (odd, >= 3)")
	pf.BoolVar(&a.cfg.IncludeRotations, "rotations", a.cfg.IncludeRotations, "add rotated variants")
	pf.BoolVar(&a.cfg.IncludeFlips, "flips", a.cfg.IncludeFlips, "add mirrored variants")
	pf.StringVar(&a.cfg.Match, "match", a.cfg.Match, "edge match mode: exact or fuzzy (default per source)")
	pf.IntVar(&a.cfg.EdgeWidth, "edge-width", a.cfg.EdgeWidth, "compared edge strip width")
	pf.IntVar(&a.cfg.ColourTolerance, "colour-tolerance", a.cfg.ColourTolerance, "fuzzy: max per-channel difference")
	pf.Float64Var(&a.cfg.MatchRatio, "match-ratio", a.cfg.MatchRatio, "fuzzy: min matching pixel fraction")
	pf.IntVar(&a.cfg.MaxMismatchRun, "max-mismatch-run", a.cfg.MaxMismatchRun, "fuzzy: longest tolerated mismatch run")
	pf.IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "adjacency build goroutines (0 = GOMAXPROCS)")
	pf.IntVar(&a.cfg.PaletteSize, "palette", a.cfg.PaletteSize, "quantize image sources to this many colors (0 = off)")
	pf.StringVar(&a.cfg.PaletteMethod, "palette-method", a.cfg.PaletteMethod, "dominantcolor or kmeans")
	pf.IntVarP(&a.cfg.GridWidth, "width", "W", a.cfg.GridWidth, "grid width in cells")
	pf.IntVarP(&a.cfg.GridHeight, "height", "H", a.cfg.GridHeight, "grid height in cells")
	pf.BoolVar(&a.cfg.Wrap, "wrap", a.cfg.Wrap, "wrap the grid around its edges")
	pf.Uint64Var(&a.seed, "seed", 0, "random seed (random when unset)")
	pf.IntVar(&a.cfg.Retries, "retries", a.cfg.Retries, "restarts after a solver failure")
	pf.StringVar(&a.cfg.RenderMode, "render", a.cfg.RenderMode, "pixel or patch (default per source)")
	pf.IntVar(&a.cfg.Scale, "scale", a.cfg.Scale, "output upscale factor")
	pf.StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "output PNG")

	root.AddCommand(newGenerateCmd(a), newWatchCmd(a), newInspectCmd(a))
	return root
}

// setup loads the config file, re-applies explicit flags on top of it and
// configures logging.
func (a *app) setup(cmd *cobra.Command, stderr io.Writer) error {
	flags := cmd.Flags()
	if a.configPath != "" {
		explicit := map[string]string{}
		flags.Visit(func(f *pflag.Flag) { explicit[f.Name] = f.Value.String() })
		if err := a.cfg.merge(a.configPath); err != nil {
			return err
		}
		for name, v := range explicit {
			if err := flags.Set(name, v); err != nil {
				return err
			}
		}
	}
	if flags.Changed("seed") {
		seed := a.seed
		a.cfg.Seed = &seed
	}

	level, err := parseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	wavecollapse.SetLogger(a.log)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
