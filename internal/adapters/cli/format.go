// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting, but delegate
// business logic to services.
package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/ports/primary"
)

var (
	green = color.New(color.FgGreen)
	amber = color.New(color.FgYellow)
	red   = color.New(color.FgRed)
	grey  = color.New(color.FgHiBlack)
)

// StatusTag renders a workflow status in its signal colour.
func StatusTag(status string) string {
	if status == "" {
		return grey.Sprint("-")
	}
	return statusColor(status).Sprint(status)
}

// statusCell renders a status left-aligned in a column of width.
func statusCell(status string, width int) string {
	return statusColor(status).Sprintf("%-*s", width, orDash(status))
}

func statusColor(status string) *color.Color {
	switch status {
	case "APPROVED", "VERIFIED", "ACCEPT", "COMPLETE", "CURRENT", "Y":
		return green
	case "REVIEW", "READY", "N/V", "SUSPENDED":
		return amber
	case "REVISE", "N", "REVOKED", "EXPIRED":
		return red
	}
	return grey
}

// PrintFormErrors writes validation errors one per line, sorted by field.
func PrintFormErrors(out io.Writer, errs commission.FormErrors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Fprintln(out, red.Sprint("✗ Form has errors:"))
	for _, f := range fields {
		fmt.Fprintf(out, "  %s: %s\n", f, errs[f])
	}
}

func printMessages(out io.Writer, m primary.Messages) {
	if m.Information != "" {
		fmt.Fprintf(out, "ℹ %s\n", m.Information)
	}
	if m.Flash != "" {
		fmt.Fprintf(out, "%s %s\n", green.Sprint("✓"), m.Flash)
	}
	if m.Warning != "" {
		fmt.Fprintf(out, "%s %s\n", amber.Sprint("!"), m.Warning)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
