package cli

import (
	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/wire"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Test station approval",
}

var siteShowCmd = &cobra.Command{
	Use:   "show [site-id]",
	Short: "Show the approval of a test station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.StationAdapter().Show(ctx, args[0])
	},
}

var siteUpdateCmd = &cobra.Command{
	Use:   "update [site-id]",
	Short: "Edit the approval of a test station",
	Long: `Edit the approval of a test station. Without flags, the workflow is
re-evaluated only.

Examples:
  gims site update SITE-002 --mpav REVIEW --hygiene REVIEW --layout REVIEW
  gims site update SITE-002 --role approver --mpav APPROVED --advice "Layout plan missing"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.StationAdapter().Update(ctx, approvalRequest(cmd, args[0]))
	},
}

var siteLocationCmd = &cobra.Command{
	Use:   "location [site-id]",
	Short: "Change the address of a test station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		place, _ := cmd.Flags().GetString("place")
		street, _ := cmd.Flags().GetString("street")
		postcode, _ := cmd.Flags().GetString("postcode")

		return wire.StationAdapter().Location(ctx, primary.UpdateLocationRequest{
			SiteID:   args[0],
			Parent:   place,
			Street:   street,
			Postcode: postcode,
		})
	},
}

var siteHistoryCmd = &cobra.Command{
	Use:   "history [site-id]",
	Short: "Show the approval history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.StationAdapter().History(ctx, args[0])
	},
}

var siteCodeCmd = &cobra.Command{
	Use:   "code [site-id]",
	Short: "Generate a facility code if missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.StationAdapter().Code(ctx, args[0])
	},
}

// SiteCmd returns the site command with all subcommands attached.
func SiteCmd() *cobra.Command {
	siteUpdateCmd.Flags().String("status", "", "Overall status (REVISE|READY|REVIEW|APPROVED)")
	siteUpdateCmd.Flags().String("mpav", "", "MPAV review (REVISE|REVIEW|APPROVED)")
	siteUpdateCmd.Flags().String("hygiene", "", "Hygiene plan review")
	siteUpdateCmd.Flags().String("layout", "", "Layout review")
	siteUpdateCmd.Flags().String("public", "", "Listed in registry (Y|N)")
	siteUpdateCmd.Flags().String("advice", "", "Advice to the provider")

	siteLocationCmd.Flags().String("place", "", "Place (required)")
	siteLocationCmd.Flags().String("street", "", "Street")
	siteLocationCmd.Flags().String("postcode", "", "Postcode")
	_ = siteLocationCmd.MarkFlagRequired("place")

	siteCmd.AddCommand(siteShowCmd)
	siteCmd.AddCommand(siteUpdateCmd)
	siteCmd.AddCommand(siteLocationCmd)
	siteCmd.AddCommand(siteHistoryCmd)
	siteCmd.AddCommand(siteCodeCmd)

	return siteCmd
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "List the public test station registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.StationAdapter().Registry(ctx)
	},
}

// RegistryCmd returns the registry command.
func RegistryCmd() *cobra.Command {
	return registryCmd
}
