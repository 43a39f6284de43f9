package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/logging"
)

// #region inspect

type inspectRow struct {
	ID        int64  `json:"id"`
	Score     int    `json:"score"`
	Verdict   string `json:"verdict"`
	HardKill  string `json:"hard_kill,omitempty"`
	Delta     *int   `json:"delta,omitempty"`
	InputHash string `json:"input_hash"`
	CreatedAt string `json:"created_at"`
}

func newInspectCmd(a *app) *cobra.Command {
	var flags struct {
		db      string
		product string
		last    int
		jsonOut bool
	}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the score history of a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(flags.db)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := logging.ListScores(st.DB(), flags.product, flags.last)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no scores logged for %s\n", flags.product)
				return nil
			}

			rows := buildInspectRows(entries)
			if flags.jsonOut {
				return writeJSON(out, rows)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCORE\tDELTA\tVERDICT\tHARD KILL\tINPUT\tCREATED")
			for _, r := range rows {
				delta := "-"
				if r.Delta != nil {
					delta = fmt.Sprintf("%+d", *r.Delta)
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%.12s\t%s\n",
					r.ID, r.Score, delta, r.Verdict, orDash(r.HardKill), r.InputHash, r.CreatedAt)
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.db, "db", "", "path to the pmf database (default from config)")
	f.StringVar(&flags.product, "product", "", "product id (required)")
	f.IntVar(&flags.last, "last", 20, "show N most recent scores")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON instead of table")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

// buildInspectRows turns newest-first entries into chronological rows, each
// carrying its change from the previous score.
func buildInspectRows(entries []logging.ScoreEntry) []inspectRow {
	rows := make([]inspectRow, len(entries))
	for i, e := range entries {
		idx := len(entries) - 1 - i
		r := inspectRow{
			ID:        e.ID,
			Score:     e.Result.Score,
			Verdict:   string(e.Result.Verdict),
			InputHash: e.InputHash,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
		if e.Result.HardKill != nil {
			r.HardKill = e.Result.HardKill.Code
		}
		rows[idx] = r
	}
	for i := 1; i < len(rows); i++ {
		d := rows[i].Score - rows[i-1].Score
		rows[i].Delta = &d
	}
	return rows
}

// #endregion inspect
