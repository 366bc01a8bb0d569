package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robotrecruit/rewards/internal/daemon"
	"github.com/robotrecruit/rewards/internal/domain"
)

func init() {
	promoCreateCmd.Flags().IntVar(&promoTier, "tier", 2, "Tier the code promotes to (2=pro, 3=premium)")
	promoCreateCmd.Flags().IntVar(&promoDays, "days", 30, "Promotion duration in days once redeemed")
	promoCreateCmd.Flags().IntVar(&promoMaxUses, "max-uses", 0, "Total redemption cap (0 = unlimited)")
	promoCreateCmd.Flags().StringVar(&promoExpires, "expires", "", "Last redeemable date, YYYY-MM-DD (empty = never)")
	promoCmd.AddCommand(promoCreateCmd)
	rootCmd.AddCommand(promoCmd)
}

var (
	promoTier    int
	promoDays    int
	promoMaxUses int
	promoExpires string
)

var promoCmd = &cobra.Command{
	Use:   "promo",
	Short: "Manage promo codes (admin)",
}

var promoCreateCmd = &cobra.Command{
	Use:   "create <code>",
	Short: "Register a promo code",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromoCreate,
}

func runPromoCreate(cmd *cobra.Command, args []string) error {
	var expiresAt time.Time
	if promoExpires != "" {
		t, err := time.Parse("2006-01-02", promoExpires)
		if err != nil {
			return fmt.Errorf("invalid expiry %q (want YYYY-MM-DD)", promoExpires)
		}
		expiresAt = t.AddDate(0, 0, 1) // redeemable through the named day
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p := domain.PromoCode{
		Code:         args[0],
		Tier:         domain.Tier(promoTier),
		DurationDays: promoDays,
		MaxUses:      promoMaxUses,
		ExpiresAt:    expiresAt,
	}
	if err := d.Entitlements.CreatePromoCode(p); err != nil {
		return err
	}

	fmt.Printf("Created promo %s: %s for %d days", p.Code, p.Tier, p.DurationDays)
	if p.MaxUses > 0 {
		fmt.Printf(", max %d uses", p.MaxUses)
	}
	fmt.Println()
	return nil
}
