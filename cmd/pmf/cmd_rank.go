package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/uncertainty"
)

// #region rank
func newRankCmd(_ *app) *cobra.Command {
	var flags struct {
		bundle  string
		jsonOut bool
	}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the open uncertainties of a product, most dangerous first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := readBundle(flags.bundle)
			if err != nil {
				return err
			}
			ranked := uncertainty.Rank(b.Flows)

			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return writeJSON(out, ranked)
			}
			for i, u := range ranked {
				fmt.Fprintf(out, "%d. %-24s weight %-3d %s\n", i+1, u.Type, u.Weight, u.Question)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.bundle, "bundle", "", "JSON product bundle (required)")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}

// #endregion rank
