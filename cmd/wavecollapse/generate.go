package main

import (
	"github.com/setanarut/wavecollapse"
	"github.com/setanarut/wavecollapse/utils"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <source>",
		Short: "Solve a grid and write it as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := a.loadSource(ctx, args[0])
			if err != nil {
				return err
			}
			g, err := a.solve(ctx, src)
			if err != nil {
				return err
			}
			if err := utils.SaveImage(wavecollapse.Render(g, src.render), a.cfg.Output); err != nil {
				return err
			}
			a.log.Info("image written", "path", a.cfg.Output)
			return nil
		},
	}
}
