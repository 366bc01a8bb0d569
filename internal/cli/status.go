package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/robotrecruit/rewards/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <user-id>",
	Short: "Show a user's entitlement and rewards state",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	userID := args[0]
	now := time.Now()

	account, err := d.Entitlements.Account(userID, now)
	if err != nil {
		return err
	}
	ledger, err := d.PowerUps.Ledger(userID, now)
	if err != nil {
		return err
	}
	streak, err := d.Streaks.Current(userID)
	if err != nil {
		return err
	}
	refs, err := d.Referrals.List(userID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "User\t%s\n", userID)
	fmt.Fprintf(w, "Tier\t%s (base %s)\n", account.EffectiveTier(now), account.BaseTier)
	if !account.PromoExpiresAt.IsZero() && account.PromoExpiresAt.After(now) {
		fmt.Fprintf(w, "Promo\t%s until %s\n", account.PromoTier, account.PromoExpiresAt.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "Credits\t%d of %d (resets %s)\n",
		ledger.Remaining(), ledger.Allowance, ledger.ResetAt.Format("2006-01-02"))
	fmt.Fprintf(w, "Streak\t%d days (longest %d, %d points, %d freezes)\n",
		streak.Current, streak.Longest, streak.Points, streak.Freezes)
	fmt.Fprintf(w, "Referrals\t%d\n", len(refs))
	return w.Flush()
}
