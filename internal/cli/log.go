package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/wire"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View workflow audit logs",
	Long:  "View and manage the audit trail of verification, commission and approval changes",
}

var logTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent activity",
	Long:  "Show recent audit log entries (default 50)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		out := cmd.OutOrStdout()
		limit, _ := cmd.Flags().GetInt("limit")
		orgID, _ := cmd.Flags().GetString("org")
		actorID, _ := cmd.Flags().GetString("actor")
		entityType, _ := cmd.Flags().GetString("type")
		follow, _ := cmd.Flags().GetBool("follow")

		if limit <= 0 {
			limit = 50
		}

		filters := primary.LogFilters{
			OrganisationID: orgID,
			ActorID:        actorID,
			EntityType:     entityType,
			Limit:          limit,
		}

		entries, err := wire.LogService().ListLogs(ctx, filters)
		if err != nil {
			return fmt.Errorf("failed to fetch logs: %w", err)
		}

		printLogEntries(out, entries)

		if !follow {
			return nil
		}

		var lastTimestamp string
		if len(entries) > 0 {
			lastTimestamp = entries[0].Timestamp
		}

		for {
			time.Sleep(1 * time.Second)

			newEntries, err := wire.LogService().ListLogs(ctx, filters)
			if err != nil {
				fmt.Fprintf(out, "Error fetching logs: %v\n", err)
				continue
			}

			// newest first, print oldest first
			for i := len(newEntries) - 1; i >= 0; i-- {
				entry := newEntries[i]
				if lastTimestamp == "" || entry.Timestamp > lastTimestamp {
					printLogEntry(out, entry)
					if entry.Timestamp > lastTimestamp {
						lastTimestamp = entry.Timestamp
					}
				}
			}
		}
	},
}

var logShowCmd = &cobra.Command{
	Use:   "show [entity-id]",
	Short: "Show activity for a specific entity",
	Long:  "Show activity history for a specific entity (e.g., COMM-001, SITE-002, ORG-003)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		actorID, _ := cmd.Flags().GetString("actor")
		limit, _ := cmd.Flags().GetInt("limit")

		filters := primary.LogFilters{
			ActorID: actorID,
			Limit:   limit,
		}

		if len(args) > 0 {
			filters.EntityID = args[0]
		}

		entries, err := wire.LogService().ListLogs(ctx, filters)
		if err != nil {
			return fmt.Errorf("failed to fetch logs: %w", err)
		}

		printLogEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

var logPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old log entries",
	Long:  "Delete log entries older than the specified number of days (default 90)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		out := cmd.OutOrStdout()
		days, _ := cmd.Flags().GetInt("days")

		if days <= 0 {
			days = 90
		}

		count, err := wire.LogService().PruneLogs(ctx, days)
		if err != nil {
			return fmt.Errorf("failed to prune logs: %w", err)
		}

		if count == 0 {
			fmt.Fprintf(out, "No log entries older than %d days found.\n", days)
		} else {
			fmt.Fprintf(out, "Pruned %d log entries older than %d days.\n", count, days)
		}
		return nil
	},
}

func printLogEntries(out io.Writer, entries []*primary.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No log entries found.")
		return
	}

	fmt.Fprintf(out, "Found %d log entries:\n\n", len(entries))

	for i := len(entries) - 1; i >= 0; i-- {
		printLogEntry(out, entries[i])
	}
}

// printLogEntry prints one entry as
// timestamp | actor | action | org | entity_type/entity_id | field changes
func printLogEntry(out io.Writer, entry *primary.LogEntry) {
	actor := entry.ActorID
	if actor == "" {
		actor = "-"
	}
	org := entry.OrganisationID
	if org == "" {
		org = "-"
	}

	fmt.Fprintf(out, "%s | %-20s | %s %s | %-7s | %s/%s",
		formatTimestamp(entry.Timestamp),
		actor,
		getActionIcon(entry.Action),
		entry.Action,
		org,
		entry.EntityType,
		entry.EntityID,
	)

	if entry.Action == "update" && entry.FieldName != "" {
		fmt.Fprintf(out, " | %s: %s -> %s", entry.FieldName, orEmpty(entry.OldValue), orEmpty(entry.NewValue))
	}

	fmt.Fprintln(out)
}

func getActionIcon(action string) string {
	switch action {
	case "create":
		return "+"
	case "update":
		return "~"
	default:
		return "?"
	}
}

func orEmpty(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// LogCmd returns the log command with all subcommands attached.
func LogCmd() *cobra.Command {
	logTailCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
	logTailCmd.Flags().String("org", "", "Filter by organisation ID")
	logTailCmd.Flags().String("actor", "", "Filter by actor ID")
	logTailCmd.Flags().String("type", "", "Filter by entity type (verification|commission|staff|site|site_approval)")
	logTailCmd.Flags().BoolP("follow", "f", false, "Follow mode: poll for new entries")

	logShowCmd.Flags().String("actor", "", "Filter by actor ID")
	logShowCmd.Flags().IntP("limit", "n", 100, "Maximum entries to show")

	logPruneCmd.Flags().Int("days", 90, "Delete entries older than N days")

	logCmd.AddCommand(logTailCmd)
	logCmd.AddCommand(logShowCmd)
	logCmd.AddCommand(logPruneCmd)

	return logCmd
}
