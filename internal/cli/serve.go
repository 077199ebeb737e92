package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/adapters/api"
	"github.com/nursix/gims/internal/ctxutil"
	"github.com/nursix/gims/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API on GIMS_HTTP_ADDR. Requires GIMS_JWT_SECRET.

With --expire-every, active commissions past their end date are expired
periodically while the server runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			if err := cfg.Validate(); err != nil {
				return err
			}
			defer wire.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = cfg.HTTPAddr
			}
			expireEvery, _ := cmd.Flags().GetDuration("expire-every")

			e := api.NewServer(api.NewHandler(wire.ProviderService(), wire.StationService()), cfg.JWTSecret)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if expireEvery > 0 {
				go runExpiry(ctx, expireEvery)
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("http server listening", "addr", addr)
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides GIMS_HTTP_ADDR)")
	cmd.Flags().Duration("expire-every", 0, "Commission expiry interval, e.g. 24h (0 disables)")

	return cmd
}

// runExpiry expires commissions on every tick as the system user.
func runExpiry(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	sweepCtx := ctxutil.WithActor(ctx, ctxutil.Actor{UserID: "system", Role: "approver"})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := wire.ProviderService().ExpireCommissions(sweepCtx)
			if err != nil {
				slog.Error("commission expiry failed", "error", err)
				continue
			}
			if len(expired) > 0 {
				slog.Info("commissions expired", "count", len(expired))
			}
		}
	}
}

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for the acting user",
		Long: `Issue a bearer token for the HTTP API, carrying --user, --role,
--auth-roles and --member-of. Requires GIMS_JWT_SECRET.

Examples:
  gims token --user reviewer@example.org --role approver --auth-roles ORG_GROUP_ADMIN
  gims token --user tester@example.org --role applicant --member-of ORG-002`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			if err := cfg.Validate(); err != nil {
				return err
			}

			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			actor, ok := ctxutil.ActorFromContext(NewContext())
			if !ok {
				return fmt.Errorf("--user is required")
			}

			token, err := api.IssueToken(cfg.JWTSecret, actor, ttl, time.Now())
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Duration("ttl", 0, "Token lifetime (overrides GIMS_TOKEN_TTL)")

	return cmd
}
