// Package cli provides CLI commands for the GIMS application.
package cli

import (
	gocontext "context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/ctxutil"
	"github.com/nursix/gims/internal/logging"
	"github.com/nursix/gims/internal/wire"
)

// globalActor stores the acting user for the current CLI invocation.
// Set once at startup by StoreActor().
var globalActor ctxutil.Actor

// RegisterGlobalFlags adds the actor and configuration flags to the root command.
func RegisterGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("user", envOr("GIMS_USER", os.Getenv("USER")), "Acting user ID")
	flags.String("role", envOr("GIMS_ROLE", string(access.RoleApprover)), "Workflow role (applicant|approver)")
	flags.StringSlice("auth-roles", nil, "System roles, e.g. ORG_GROUP_ADMIN")
	flags.String("member-of", os.Getenv("GIMS_MEMBER_OF"), "Organisation of the acting user, e.g. ORG-002")
	flags.String("env-file", ".env", "Settings file")
	flags.String("log-level", "", "Log level (overrides GIMS_LOG_LEVEL)")
}

// StoreActor reads the global flags, configures logging and stores the
// acting user. Should be called once at CLI startup in PersistentPreRunE.
func StoreActor(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	wire.SetEnvFile(envFile)

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv("GIMS_LOG_LEVEL")
	}
	logging.Init(level)

	user, _ := cmd.Flags().GetString("user")
	roleFlag, _ := cmd.Flags().GetString("role")
	authRoles, _ := cmd.Flags().GetStringSlice("auth-roles")
	memberOf, _ := cmd.Flags().GetString("member-of")

	role, err := access.ParseRole(roleFlag)
	if err != nil {
		return err
	}

	globalActor = ctxutil.Actor{
		UserID:    user,
		Role:      string(role),
		AuthRoles: normalizeRoles(authRoles),
		Email:     user,

		OrganisationID: strings.TrimSpace(memberOf),
	}
	return nil
}

// NewContext creates a context.Background() with the current actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActor.UserID != "" {
		return ctxutil.WithActor(ctx, globalActor)
	}
	return ctx
}

func normalizeRoles(roles []string) []string {
	var out []string
	for _, r := range roles {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
