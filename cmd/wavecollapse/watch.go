package main

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/setanarut/wavecollapse"
	"github.com/setanarut/wavecollapse/term"
	"github.com/setanarut/wavecollapse/utils"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		steps    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <source>",
		Short: "Solve a grid live in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := a.loadSource(ctx, args[0])
			if err != nil {
				return err
			}
			gopt := a.cfg.GridOptions()
			g, err := wavecollapse.NewGridFromTileSet(src.tiles, gopt)
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			err = term.Watch(ctx, screen, g, term.WatchOptions{
				StepsPerFrame: steps,
				Interval:      interval,
				Seed:          gopt.Seed,
			})
			screen.Fini()
			if err != nil {
				return err
			}
			if g.Solved() {
				if err := utils.SaveImage(wavecollapse.Render(g, src.render), a.cfg.Output); err != nil {
					return err
				}
				a.log.Info("image written", "path", a.cfg.Output)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 4, "solver steps per frame")
	cmd.Flags().DurationVar(&interval, "interval", 33*time.Millisecond, "frame interval")
	return cmd
}
