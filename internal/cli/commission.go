package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/wire"
)

var commissionCmd = &cobra.Command{
	Use:   "commission",
	Short: "Manage provider commissions",
}

var commissionCreateCmd = &cobra.Command{
	Use:   "create [org-id]",
	Short: "Create a new commission",
	Long: `Create a new commission for a verified provider.

Examples:
  gims commission create ORG-002 --date 2026-03-01 --end 2026-12-31`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		if !cmd.Flags().Changed("date") {
			return fmt.Errorf("--date is required")
		}
		form, err := commissionForm(cmd, args[0], "")
		if err != nil {
			return err
		}

		return wire.ProviderAdapter().CreateCommission(ctx, form)
	},
}

var commissionUpdateCmd = &cobra.Command{
	Use:   "update [org-id] [commission-id]",
	Short: "Update a commission",
	Long: `Update dates, status or comments of a commission. Only the given
flags are changed; --end "" removes the end date.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		form, err := commissionForm(cmd, args[0], args[1])
		if err != nil {
			return err
		}

		return wire.ProviderAdapter().UpdateCommission(ctx, form)
	},
}

var commissionListCmd = &cobra.Command{
	Use:   "list [org-id]",
	Short: "List commissions of a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().ListCommissions(ctx, args[0])
	},
}

var commissionExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire commissions past their end date",
	Long:  "Expire all active commissions whose end date has passed. Intended to run daily.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().ExpireCommissions(ctx)
	},
}

// CommissionCmd returns the commission command with all subcommands attached.
func CommissionCmd() *cobra.Command {
	for _, c := range []*cobra.Command{commissionCreateCmd, commissionUpdateCmd} {
		c.Flags().String("date", "", "Start date (YYYY-MM-DD)")
		c.Flags().String("end", "", "End date (YYYY-MM-DD)")
		c.Flags().String("comments", "", "Comments")
	}
	commissionUpdateCmd.Flags().String("status", "", "Status (CURRENT|SUSPENDED|REVOKED|EXPIRED)")
	commissionUpdateCmd.Flags().String("reason", "", "Status reason")

	commissionCmd.AddCommand(commissionCreateCmd)
	commissionCmd.AddCommand(commissionUpdateCmd)
	commissionCmd.AddCommand(commissionListCmd)
	commissionCmd.AddCommand(commissionExpireCmd)

	return commissionCmd
}
