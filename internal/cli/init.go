package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/db"
	"github.com/nursix/gims/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the GIMS database",
		Long:  `Initialize the GIMS database (GIMS_DB_PATH, default ~/.gims/gims.db) and apply pending migrations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := wire.Config()

			fmt.Fprintf(out, "Initializing GIMS database at %s\n", cfg.DBPath)

			database, err := db.GetDB()
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			version, err := db.CurrentVersion(database)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}

			fmt.Fprintf(out, "✓ Database initialized (schema version %d)\n", version)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  gims seed")
			fmt.Fprintln(out, "  gims provider show ORG-002")
			return nil
		},
	}
}

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load development fixtures",
		Long:  `Load organisation types, three providers with managers and test stations, and the requirement texts into an empty database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.Config()

			database, err := db.GetDB()
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed database (already seeded?): %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Fixtures loaded")
			return nil
		},
	}
}
