package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robotrecruit/rewards/internal/daemon"
)

func init() {
	grantCmd.Flags().StringVar(&grantSource, "source", "manual", "Source label recorded against the grant")
	rootCmd.AddCommand(grantCmd)
}

var grantSource string

var grantCmd = &cobra.Command{
	Use:   "grant <user-id> <amount>",
	Short: "Grant power-up credits to a user (admin)",
	Long:  `Adjust a user's power-up allowance. Negative amounts debit it.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runGrant,
}

func runGrant(cmd *cobra.Command, args []string) error {
	var amount int
	if _, err := fmt.Sscanf(args[1], "%d", &amount); err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	if amount == 0 {
		return fmt.Errorf("amount must be non-zero")
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ledger, err := d.PowerUps.Grant(args[0], amount, grantSource, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Granted %+d credits to %s (balance: %d of %d)\n",
		amount, args[0], ledger.Remaining(), ledger.Allowance)
	return nil
}
