package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/cli"
	"github.com/nursix/gims/internal/version"
	"github.com/nursix/gims/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "gims",
		Short:   "GIMS - Test station registry and provider commissioning",
		Version: version.String(),
		Long: `GIMS manages the verification and commissioning of test station providers,
the approval of their test stations, and the public test station registry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.StoreActor(cmd)
		},
	}
	cli.RegisterGlobalFlags(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	// Workflows
	rootCmd.AddCommand(cli.ProviderCmd())
	rootCmd.AddCommand(cli.ManagerCmd())
	rootCmd.AddCommand(cli.CommissionCmd())
	rootCmd.AddCommand(cli.SiteCmd())
	rootCmd.AddCommand(cli.RegistryCmd())
	rootCmd.AddCommand(cli.LogCmd())

	err := rootCmd.Execute()
	wire.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
