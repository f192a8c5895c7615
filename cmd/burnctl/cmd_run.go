package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sspzz/burn-stats/internal/aggregator"
	"github.com/sspzz/burn-stats/internal/api"
)

// runCmd triggers a job synchronously
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a dataset job through the freshness gate",
}

var runLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Compute the burn leaderboard",
	Long: `Fetches bulk transfers for the configured token, ranks burners and
uploads the leaderboard. Does nothing while the cached copy is fresh
unless --force is given.

Example:
  burnctl run leaderboard --filter treatBox --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := api.NormalizeFilter(filter)
		job, ok := burnApp.Leaderboards[name]
		if !ok {
			return fmt.Errorf("leaderboard %q is not configured", name)
		}
		return runJob(cmd, job)
	},
}

var runShameCmd = &cobra.Command{
	Use:   "shame",
	Short: "Compute the shame list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, burnApp.Shame)
	},
}

func runJob(cmd *cobra.Command, job aggregator.Job) error {
	res, err := burnApp.Runner.Run(cmd.Context(), job, force)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", res.Job, res.Message())
	fmt.Fprintf(out, "run_id:      %s\n", res.RunID)
	if !res.LastUpdated.IsZero() {
		fmt.Fprintf(out, "lastUpdated: %s\n", res.LastUpdated.UTC().Format(time.RFC3339))
	}
	if res.Outcome == aggregator.OutcomeUpdated {
		fmt.Fprintf(out, "rows:        %d\n", res.Rows)
	}
	return nil
}
