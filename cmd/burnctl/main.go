package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sspzz/burn-stats/internal/api"
	"github.com/sspzz/burn-stats/internal/app"
	"github.com/sspzz/burn-stats/internal/config"
)

var (
	// Global flags
	filter string
	force  bool
	top    int

	// set by PersistentPreRunE
	burnApp *app.App
)

// openApp is swapped out in tests.
var openApp = func(ctx context.Context) (*app.App, error) {
	return app.New(ctx, config.LoadCommon())
}

var rootCmd = &cobra.Command{
	Use:   "burnctl",
	Short: "Operate the burn leaderboard and shame list datasets",
	Long: `burnctl runs the dataset jobs on demand and inspects what is cached.

Configuration is read from the same environment as the worker and API
(BLOB_BACKEND, REDIS_ADDR, RESERVOIR_API_KEY, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		burnApp = a
		return nil
	},
}

func init() {
	runCmd.PersistentFlags().BoolVar(&force, "force", false, "recompute even when the cached data is fresh")
	runLeaderboardCmd.Flags().StringVar(&filter, "filter", api.FilterFlame, "leaderboard to compute (flame, treatBox)")
	showLeaderboardCmd.Flags().StringVar(&filter, "filter", api.FilterFlame, "leaderboard to show (flame, treatBox)")
	showCmd.PersistentFlags().IntVar(&top, "top", 10, "number of rows to print")

	runCmd.AddCommand(runLeaderboardCmd, runShameCmd)
	showCmd.AddCommand(showLeaderboardCmd, showShameCmd)
	rootCmd.AddCommand(runCmd, showCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	burnApp.Close()
	if err != nil {
		os.Exit(1)
	}
}
