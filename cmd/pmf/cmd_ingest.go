package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/store"
)

// #region ingest
func newIngestCmd(a *app) *cobra.Command {
	var flags struct {
		bundle  string
		db      string
		product string
		name    string
	}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a product bundle into the database",
		Long: "ingest saves the product context, flows, experiments, signals and\n" +
			"decisions of a bundle. Locked flows cannot be rewritten and signals are\n" +
			"appended, so ingesting the same checkpoint twice duplicates it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := readBundle(flags.bundle)
			if err != nil {
				return err
			}
			st, err := a.openStore(flags.db)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := st.SaveProduct(store.Product{
				ID:                  flags.product,
				Name:                flags.name,
				CommittedPriceUSD:   b.CommittedPriceUSD,
				SignalQualityScore:  b.SignalQualityScore,
				AcceleratingSignals: b.AcceleratingSignals,
				Consistency:         b.Consistency,
			})
			if err != nil {
				return err
			}
			for _, f := range b.Flows {
				if _, err := st.SaveFlow(p.ID, f); err != nil {
					return fmt.Errorf("flow %d: %w", f.FlowNumber, err)
				}
			}
			for _, exp := range b.Experiments {
				if _, err := st.SaveExperiment(p.ID, exp); err != nil {
					return fmt.Errorf("experiment %s: %w", exp.ID, err)
				}
			}
			if err := st.AppendSignals(b.Signals); err != nil {
				return err
			}
			for i, d := range b.Decisions {
				if _, err := st.RecordDecision(p.ID, d); err != nil {
					return fmt.Errorf("decision %d: %w", i, err)
				}
			}

			a.logger.Info("bundle ingested", "product", p.ID,
				"flows", len(b.Flows), "experiments", len(b.Experiments),
				"signals", len(b.Signals), "decisions", len(b.Decisions))
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.bundle, "bundle", "", "JSON product bundle (required)")
	f.StringVar(&flags.db, "db", "", "path to the pmf database (default from config)")
	f.StringVar(&flags.product, "product", "", "product id (a new one is generated when empty)")
	f.StringVar(&flags.name, "name", "", "product display name")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}

// #endregion ingest
