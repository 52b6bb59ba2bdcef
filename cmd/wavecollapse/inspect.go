package main

import (
	"fmt"
	"slices"

	"github.com/setanarut/wavecollapse"
	"github.com/setanarut/wavecollapse/utils"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		sheet string
		top   int
	)
	cmd := &cobra.Command{
		Use:   "inspect <source>",
		Short: "Print the derived tile set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.loadSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeSummary(cmd, src.tiles, top)
			if sheet != "" {
				if err := utils.SaveImage(utils.TileSheet(src.tiles.Tiles, 16), sheet); err != nil {
					return err
				}
				a.log.Info("tile sheet written", "path", sheet)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "write every tile to this PNG")
	cmd.Flags().IntVar(&top, "top", 10, "list this many of the most frequent tiles")
	return cmd
}

func writeSummary(cmd *cobra.Command, ts *wavecollapse.TileSet, top int) {
	out := cmd.OutOrStdout()
	size := ts.TileSize()
	fmt.Fprintf(out, "tiles:      %d (%dx%d)\n", ts.Len(), size.X, size.Y)
	fmt.Fprintf(out, "extracted:  %d\n", ts.Extracted)
	fmt.Fprintf(out, "adjacency:  %d pairs, symmetric %t\n", ts.Adjacency.Count(), ts.Adjacency.Symmetric())

	ids := make([]int, ts.Len())
	for i := range ids {
		ids[i] = i
	}
	slices.SortStableFunc(ids, func(x, y int) int { return ts.Frequencies[y] - ts.Frequencies[x] })
	for _, id := range ids[:min(top, len(ids))] {
		counts := [4]int{}
		for _, d := range wavecollapse.Directions {
			counts[d] = len(ts.Adjacency.Neighbors(id, d))
		}
		fmt.Fprintf(out, "  tile %4d  freq %5d  p %.4f  n/e/s/w %d/%d/%d/%d\n",
			id, ts.Frequencies[id], ts.Frequencies.Probability(id),
			counts[wavecollapse.North], counts[wavecollapse.East], counts[wavecollapse.South], counts[wavecollapse.West])
	}
}
