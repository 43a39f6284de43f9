package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/replay"
)

// #region replay
func newReplayCmd(a *app) *cobra.Command {
	var flags struct {
		fixture string
	}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-score fixture bundles and report drift from pinned outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fix, err := replay.LoadFixture(flags.fixture)
			if err != nil {
				return err
			}

			cases := make([]replay.Case, len(fix.Cases))
			for i := range fix.Cases {
				cases[i] = fix.Cases[i].ToCase()
			}
			results := replay.Replay(cases, fix.Config.ToReplayConfig())

			out := cmd.OutOrStdout()
			if fix.Description != "" {
				fmt.Fprintf(out, "%s\n\n", fix.Description)
			}
			drifted := 0
			for i, r := range results {
				diffs := fix.Cases[i].Expected.Check(r)
				status := "ok"
				if len(diffs) > 0 {
					status = "DRIFT"
					drifted++
				}
				fmt.Fprintf(out, "%-5s %-32s %3d %-13s %s\n", status, r.Name, r.Result.Score, r.Result.Verdict, r.TopUncertainty.Type)
				for _, d := range diffs {
					fmt.Fprintf(out, "        %s\n", d)
				}
			}

			s := replay.Summarize(results)
			fmt.Fprintf(out, "\n%d cases: %d confirmed, %d partial, %d no PMF\n", s.TotalCases, s.Confirmed, s.Partial, s.NoPMF)
			codes := make([]string, 0, len(s.HardKills))
			for code := range s.HardKills {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				fmt.Fprintf(out, "  hard kill %s: %d\n", code, s.HardKills[code])
			}

			if drifted > 0 {
				a.logger.Warn("replay drift", "fixture", flags.fixture, "drifted", drifted, "total", len(results))
				return fmt.Errorf("%d of %d cases drifted", drifted, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.fixture, "fixture", "", "JSON replay fixture (required)")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

// #endregion replay
