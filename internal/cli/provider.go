package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/wire"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Provider verification",
	Long:  "Show and update the verification of test station providers",
}

var providerShowCmd = &cobra.Command{
	Use:   "show [org-id]",
	Short: "Show verification and current commission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().Show(ctx, args[0])
	},
}

var providerRefreshCmd = &cobra.Command{
	Use:   "refresh [org-id]",
	Short: "Re-evaluate the verification",
	Long: `Re-derive the verification status of a provider from its organisation
types and manager documentation, suspending or reinstating commissions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().Refresh(ctx, args[0])
	},
}

var providerTypesCmd = &cobra.Command{
	Use:   "types [org-id] [type-id...]",
	Short: "Replace the organisation types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().SetTypes(ctx, args[0], args[1:])
	},
}

var providerVerifyTypeCmd = &cobra.Command{
	Use:   "verify-type [org-id] [status]",
	Short: "Set the organisation type verification (approvers only)",
	Long:  "Set the organisation type verification to one of N/A, ACCEPT, N/V, VERIFIED",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().VerifyType(ctx, args[0], args[1])
	},
}

var providerDefaultTagsCmd = &cobra.Command{
	Use:   "default-tags [org-id]",
	Short: "Add the DELIVERY and OrgID tags if missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.ProviderAdapter().DefaultTags(ctx, args[0])
	},
}

// ProviderCmd returns the provider command with all subcommands attached.
func ProviderCmd() *cobra.Command {
	providerCmd.AddCommand(providerShowCmd)
	providerCmd.AddCommand(providerRefreshCmd)
	providerCmd.AddCommand(providerTypesCmd)
	providerCmd.AddCommand(providerVerifyTypeCmd)
	providerCmd.AddCommand(providerDefaultTagsCmd)

	return providerCmd
}

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Test station manager documentation",
}

var managerDocsCmd = &cobra.Command{
	Use:   "docs [staff-id]",
	Short: "Set document review status",
	Long: `Set the review status of a manager's documents.

Examples:
  gims manager docs STAFF-001 --regform APPROVED --crc APPROVED --scp REVISE`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		documents := map[string]string{}
		for flag, tag := range documentFlags {
			if cmd.Flags().Changed(flag) {
				value, _ := cmd.Flags().GetString(flag)
				documents[tag] = value
			}
		}
		if len(documents) == 0 {
			return fmt.Errorf("at least one of --regform, --crc, --scp is required")
		}

		return wire.ProviderAdapter().ManagerDocuments(ctx, args[0], documents)
	},
}

var documentFlags = map[string]string{
	"regform": "REGFORM",
	"crc":     "CRC",
	"scp":     "SCP",
}

var managerPersonCmd = &cobra.Command{
	Use:   "person [staff-id]",
	Short: "Change the person data of a manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()

		req := primary.ManagerPersonRequest{
			StaffID:     args[0],
			FirstName:   optionalString(cmd, "first-name"),
			LastName:    optionalString(cmd, "last-name"),
			DateOfBirth: optionalString(cmd, "dob"),
		}
		if req.FirstName == nil && req.LastName == nil && req.DateOfBirth == nil {
			return fmt.Errorf("nothing to change")
		}

		return wire.ProviderAdapter().ManagerPerson(ctx, req)
	},
}

// ManagerCmd returns the manager command with all subcommands attached.
func ManagerCmd() *cobra.Command {
	managerDocsCmd.Flags().String("regform", "", "Registration form status")
	managerDocsCmd.Flags().String("crc", "", "Criminal record certificate status")
	managerDocsCmd.Flags().String("scp", "", "Statement of conduct status")

	managerPersonCmd.Flags().String("first-name", "", "First name")
	managerPersonCmd.Flags().String("last-name", "", "Last name")
	managerPersonCmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")

	managerCmd.AddCommand(managerDocsCmd)
	managerCmd.AddCommand(managerPersonCmd)

	return managerCmd
}
