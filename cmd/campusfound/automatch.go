package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/erazemk/campusfound/internal/matching"
)

func newAutomatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "automatch",
		Short: "Score every approved lost/found pair and save the best suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			engine := matching.NewEngine(database, matchingOptions(cfg))

			start := time.Now()
			summary, err := engine.RunAutoMatch(cmd.Context())
			if errors.Is(err, matching.ErrSweepInProgress) {
				return fmt.Errorf("%w (lock %s)", err, cfg.Matching.LockPath)
			}
			if err != nil {
				return fmt.Errorf("automatch: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(summary))
			fmt.Fprintf(out, "Finished in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func renderSummary(s *matching.Summary) string {
	count := func(n int) string { return humanize.Comma(int64(n)) }
	return renderTable(
		[]string{"Metric", "Count"},
		[][]string{
			{"Lost items scanned", count(s.LostScanned)},
			{"Found items scanned", count(s.FoundScanned)},
			{"Matches created", count(s.Created)},
			{"Matches updated", count(s.Updated)},
			{"Pairs skipped", count(s.Skipped)},
		},
		[]columnAlignment{alignLeft, alignRight},
	)
}
