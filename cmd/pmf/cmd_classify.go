package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/codec"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/signals"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/telemetry"
)

// #region classify
func newClassifyCmd(a *app) *cobra.Command {
	var flags struct {
		raw       string
		judgeAddr string
		useJudge  bool
		jsonOut   bool
	}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Derive metrics and classify one experiment checkpoint",
		Long: "classify reads raw checkpoint counters, derives CTR/CPA/rates and labels\n" +
			"each metric. Rule labels always win; a judge, when configured, only fills\n" +
			"metrics the rules left open.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var payload map[string]any
			if err := readJSON(flags.raw, &payload); err != nil {
				return err
			}
			raw := signals.RawCountersFromMap(payload)

			addr := flags.judgeAddr
			if addr == "" && flags.useJudge {
				addr = a.cfg.JudgeAddr
			}

			var judge signals.Judge
			if addr != "" {
				client, err := codec.NewJudgeClient(addr, a.logger)
				if err != nil {
					return err
				}
				defer client.Close()
				judge = client
			}

			reading := signals.NewProducer(judge, a.cfg.Signals).Produce(cmd.Context(), raw)
			if judge != nil {
				var judgeErr error
				if reading.JudgeError != "" {
					judgeErr = errors.New(reading.JudgeError)
					a.logger.Warn("judge unavailable, using rule labels only", "addr", addr, "error", reading.JudgeError)
				}
				telemetry.RecordJudgeCall(judgeErr)
			}

			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return writeJSON(out, reading)
			}

			m := reading.Metrics
			fmt.Fprintf(out, "CTR %.2f%% | CPA %s | message->order %.3f | cancel %.2f%%\n\n",
				m.CTR, m.CPA, m.MessageToOrderRate, m.CancelRate)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METRIC\tLABEL\tSOURCE\tREASON")
			for _, name := range reading.Classifications.Metrics() {
				l := reading.Classifications[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, l.Classification, l.Source, orDash(l.Reason))
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.raw, "raw", "", "JSON object of raw checkpoint counters; non-numeric values count as 0 (required)")
	f.StringVar(&flags.judgeAddr, "judge-addr", "", "gRPC address of the qualitative judge")
	f.BoolVar(&flags.useJudge, "judge", false, "consult the judge at the configured address")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("raw")
	return cmd
}

// #endregion classify
