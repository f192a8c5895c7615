package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sspzz/burn-stats/internal/api"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/store"
)

// showCmd inspects cached datasets without calling the upstream API
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a cached dataset summary",
}

var showLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the cached burn leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := store.LeaderboardKey(api.NormalizeFilter(filter))
		var lb models.LeaderboardData
		if err := burnApp.Gate.Decode(cmd.Context(), key, &lb); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out := cmd.OutOrStdout()
		printStatus(cmd, key, len(lb.Leaderboard))
		for i, row := range lb.Leaderboard {
			if i >= top {
				break
			}
			fmt.Fprintf(out, "%3d  %-42s  %8d  %s\n", i+1, row.Address, row.BurnCount, row.LatestBurn.TxHash)
		}
		return nil
	},
}

var showShameCmd = &cobra.Command{
	Use:   "shame",
	Short: "Show the cached shame list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := store.ShameList
		var sd models.ShameData
		if err := burnApp.Gate.Decode(cmd.Context(), key, &sd); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out := cmd.OutOrStdout()
		printStatus(cmd, key, len(sd.Owners))
		for i, o := range sd.Owners {
			if i >= top {
				break
			}
			fmt.Fprintf(out, "%3d  %-42s  %6d flames  %3d wizards\n", i+1, o.Owner, o.FlameCount, len(o.Tokens))
		}
		return nil
	},
}

func printStatus(cmd *cobra.Command, key store.Key, rows int) {
	w := cmd.OutOrStdout()
	st := burnApp.Gate.Check(cmd.Context(), key, time.Now())
	fmt.Fprintf(w, "dataset:     %s\n", key)
	if st.Present {
		fmt.Fprintf(w, "lastUpdated: %s\n", st.LastUpdated.Format(time.RFC3339))
		fmt.Fprintf(w, "age:         %s\n", st.Age.Truncate(time.Second))
	} else {
		fmt.Fprintln(w, "lastUpdated: -")
	}
	fmt.Fprintf(w, "fresh:       %t\n", st.Fresh)
	if wt, ok := burnApp.Blobs.(store.WriteTimer); ok {
		if at, err := wt.WrittenAt(cmd.Context(), key); err == nil {
			fmt.Fprintf(w, "written:     %s (%s)\n", at.Format(time.RFC3339), burnApp.Cfg.BlobBackend)
		}
	}
	fmt.Fprintf(w, "rows:        %d\n", rows)
}
