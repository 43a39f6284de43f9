package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/logging"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/scoring"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/telemetry"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/uncertainty"
)

// #region score
func newScoreCmd(a *app) *cobra.Command {
	var flags struct {
		bundle  string
		db      string
		product string
		enrich  bool
		jsonOut bool
	}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the PMF score and verdict for a product",
		Long: "score reads a product bundle from a JSON file (--bundle) or from the\n" +
			"database (--product). Database scores are appended to the score log\n" +
			"together with a hash of the scored input.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (flags.bundle == "") == (flags.product == "") {
				return errors.New("exactly one of --bundle or --product is required")
			}

			var (
				b       evidence.Bundle
				persist func(evidence.Bundle, scoring.Result) error
			)
			if flags.bundle != "" {
				var err error
				if b, err = readBundle(flags.bundle); err != nil {
					return err
				}
			} else {
				st, err := a.openStore(flags.db)
				if err != nil {
					return err
				}
				defer st.Close()
				if b, err = st.LoadBundle(flags.product); err != nil {
					return fmt.Errorf("load product %s: %w", flags.product, err)
				}
				persist = func(scored evidence.Bundle, res scoring.Result) error {
					hash, err := logging.HashBundle(scored)
					if err != nil {
						return err
					}
					id, err := logging.LogScore(st.DB(), logging.ScoreEntry{
						ProductID: flags.product,
						InputHash: hash,
						Result:    res,
						CreatedAt: time.Now().UTC(),
					})
					if err != nil {
						return err
					}
					a.logger.Info("score logged", "product", flags.product, "entry", id, "score", res.Score, "verdict", res.Verdict)
					return nil
				}
			}

			if flags.enrich {
				b = scoring.Enrich(b)
			}
			res := scoring.NewEngine(a.cfg.Scoring, a.cfg.Gate).Compute(b)
			telemetry.RecordScore(res)
			if res.HardKill != nil {
				a.logger.Warn("hard kill", "code", res.HardKill.Code, "reason", res.HardKill.Reason)
			}
			if persist != nil {
				if err := persist(b, res); err != nil {
					return fmt.Errorf("log score: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return writeJSON(out, res)
			}
			printResult(out, res)
			top := uncertainty.Top(b.Flows)
			fmt.Fprintf(out, "\nNext question (%s): %s\n", top.Type, top.Question)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.bundle, "bundle", "", "JSON product bundle")
	f.StringVar(&flags.db, "db", "", "path to the pmf database (default from config)")
	f.StringVar(&flags.product, "product", "", "product id to load from the database")
	f.BoolVar(&flags.enrich, "enrich", true, "derive signal acceleration and CPA stability from the signal log")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON")
	cmd.MarkFlagsMutuallyExclusive("bundle", "product")
	cmd.MarkFlagsMutuallyExclusive("bundle", "db")
	return cmd
}

// #endregion score

// #region render
func printResult(out io.Writer, res scoring.Result) {
	fmt.Fprintf(out, "PMF score %d/100  %s  (raw %.1f)\n", res.Score, res.Verdict, res.RawScore)
	if res.HardKill != nil {
		fmt.Fprintf(out, "HARD KILL %s: %s\n", res.HardKill.Code, res.HardKill.Reason)
	}
	for _, c := range []scoring.ComponentScore{res.Foundation, res.Experiment, res.Consistency} {
		fmt.Fprintf(out, "\n%-12s %d/%d\n", c.Name, c.Score, c.Max)
		for _, r := range c.Rows {
			fmt.Fprintf(out, "  %-18s %2d/%-2d  %s\n", r.Name, r.Score, r.Max, r.Label)
		}
	}
	printAdjustment(out, "penalties", res.Penalties)
	printAdjustment(out, "modifiers", res.Modifiers)
}

func printAdjustment(out io.Writer, name string, adj scoring.Adjustment) {
	fmt.Fprintf(out, "\n%-12s %+g", name, adj.Total)
	if adj.Capped {
		fmt.Fprintf(out, " (capped from %+g)", adj.Raw)
	}
	fmt.Fprintln(out)
	for _, s := range adj.Sources {
		fmt.Fprintf(out, "  %+g  %s\n", s.Amount, s.Name)
	}
}

// #endregion render
