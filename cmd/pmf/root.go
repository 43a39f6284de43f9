package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/config"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

// #region app

// app is the state shared by every subcommand once the root has loaded
// configuration.
type app struct {
	configPath  string
	metricsFile string

	cfg    config.Config
	logger *slog.Logger
}

// newRootCmd wires the command tree. A fresh tree per call keeps flag
// values from leaking between invocations in tests.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pmf",
		Short: "Product-market-fit scoring and experiment gates",
		Long: "pmf classifies experiment checkpoints, evaluates gates, ranks open\n" +
			"uncertainties and computes the 0-100 PMF score for a product.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.metricsFile == "" {
				return nil
			}
			if err := telemetry.WriteTextfile(a.metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		},
	}
	root.Version = version

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file overlaying the defaults")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		newClassifyCmd(a),
		newGatesCmd(a),
		newRankCmd(a),
		newScoreCmd(a),
		newIngestCmd(a),
		newReplayCmd(a),
		newInspectCmd(a),
	)
	return root
}

// #endregion app
