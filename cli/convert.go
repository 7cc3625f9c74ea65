package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stevemurr/content-builder/convert"
)

func (a *app) convertCmd() *cobra.Command {
	var (
		from, out string
		seed      uint64
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a data directory into the static frontend format",
		Long: `convert reads a data directory in the JSON backend layout and writes the
enriched creators, sets and cards consumed by the static frontend. Random
choices (titles, media, stats) come from --seed; the same seed and input
always give the same output.`,
		Example: `  content-builder convert --from ./data --out ./site/data --seed 7`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			res, err := convert.ConvertDir(cmd.Context(), from, out, seed, time.Now, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d creators, %d sets, %d cards into %s (seed %d)\n",
				len(res.Creators), len(res.Sets), len(res.Cards), out, seed)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "source data directory")
	f.StringVar(&out, "out", "", "output directory")
	f.Uint64Var(&seed, "seed", 0, "random seed (default derived from the clock)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
