// Package cli implements the rewards command-line interface using
// Cobra. Subcommands cover serving the API plus the admin surfaces
// (credit grants, promo codes, user status).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Rewards — entitlement and rewards engine",
	Long: `Rewards is the entitlement and rewards engine for the bot platform.
It tracks subscription tiers, power-up credits, streaks, referrals,
daily reward games, and challenges behind a single REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
