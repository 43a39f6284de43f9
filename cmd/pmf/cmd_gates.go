package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/gate"
)

// #region gates
func newGatesCmd(a *app) *cobra.Command {
	var flags struct {
		experiment string
		signals    string
		kill       bool
		jsonOut    bool
	}

	cmd := &cobra.Command{
		Use:   "gates",
		Short: "Evaluate the four experiment gates and recommend GO/FIX/KILL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var exp evidence.ExperimentRecord
			if err := readJSON(flags.experiment, &exp); err != nil {
				return err
			}
			if err := evidence.Validate(exp); err != nil {
				return fmt.Errorf("experiment %s: %w", flags.experiment, err)
			}

			var records []evidence.SignalRecord
			if flags.signals != "" {
				if err := readJSON(flags.signals, &records); err != nil {
					return err
				}
			}
			results := evidence.EffectiveResults(exp, records)

			assessment := gate.NewGate(a.cfg.Gate, nil).Evaluate(exp, results, flags.kill)

			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return writeJSON(out, assessment)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GATE\tVALUE\tTHRESHOLD\tRESULT")
			for _, g := range assessment.Report.Gates {
				result := "FAIL"
				if g.Passed {
					result = "PASS"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s %g\t%s\n", g.Name, g.Display, g.Comparator, g.Threshold, result)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			r := assessment.Recommendation
			fmt.Fprintf(out, "\n%d/%d gates passed | criteria %s\n", assessment.Report.PassCount, gate.GateCount, assessment.Criteria)
			fmt.Fprintf(out, "Recommendation: %s (%s) %s\n", r.Decision, r.Confidence, r.Reason)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.experiment, "experiment", "", "JSON file with one experiment record (required)")
	f.StringVar(&flags.signals, "signals", "", "JSON array of signal records used when the experiment has no results")
	f.BoolVar(&flags.kill, "kill", false, "the experiment's kill condition has been met")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("experiment")
	return cmd
}

// #endregion gates
