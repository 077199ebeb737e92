package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/nursix/gims/internal/ports/primary"
)

// StationAdapter translates CLI operations to StationService calls.
type StationAdapter struct {
	service primary.StationService
	out     io.Writer
}

// NewStationAdapter creates a new StationAdapter with the given service.
func NewStationAdapter(service primary.StationService, out io.Writer) *StationAdapter {
	return &StationAdapter{
		service: service,
		out:     out,
	}
}

// Show displays the approval of a site, including the integrity check.
func (a *StationAdapter) Show(ctx context.Context, siteID string) error {
	approval, err := a.service.GetApproval(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to get approval: %w", err)
	}
	a.printApproval(approval)

	integrity, err := a.service.CheckIntegrity(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to check integrity: %w", err)
	}
	if !integrity.Intact {
		fmt.Fprintf(a.out, "%s location changed since approval (would become %s)\n",
			amber.Sprint("!"), StatusTag(integrity.Downgraded))
	}
	fmt.Fprintln(a.out)
	return nil
}

// Update applies a manual approval edit.
func (a *StationAdapter) Update(ctx context.Context, req primary.SaveApprovalRequest) error {
	result, err := a.service.SaveApproval(ctx, req)
	if err != nil {
		return err
	}
	a.printResult(result)
	return nil
}

// Location changes the address of a site.
func (a *StationAdapter) Location(ctx context.Context, req primary.UpdateLocationRequest) error {
	result, err := a.service.UpdateLocation(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Location of %s updated\n", req.SiteID)
	a.printResult(result)
	return nil
}

// History lists the approval history of a site.
func (a *StationAdapter) History(ctx context.Context, siteID string) error {
	history, err := a.service.History(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintln(a.out, "No history found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-21s %-9s %-9s %-9s %-9s %s\n", "TIMESTAMP", "STATUS", "MPAV", "HYGIENE", "LAYOUT", "PUBLIC")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────")
	for _, h := range history {
		public := StatusTag(h.Public)
		if h.PublicReason != "" {
			public += " (" + h.PublicReason + ")"
		}
		fmt.Fprintf(a.out, "%-21s %s %s %s %s %s\n", h.Timestamp,
			statusCell(h.Status, 9), statusCell(h.MPAV, 9), statusCell(h.Hygiene, 9), statusCell(h.Layout, 9), public)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Code generates a facility code for a site without one.
func (a *StationAdapter) Code(ctx context.Context, siteID string) error {
	code, err := a.service.AddFacilityCode(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to add facility code: %w", err)
	}
	if code == "" {
		fmt.Fprintf(a.out, "Site %s already has a facility code\n", siteID)
		return nil
	}
	fmt.Fprintf(a.out, "✓ Facility code of %s: %s\n", siteID, code)
	return nil
}

// Registry lists the public test station registry.
func (a *StationAdapter) Registry(ctx context.Context) error {
	entries, err := a.service.PublicRegistry(ctx)
	if err != nil {
		return fmt.Errorf("failed to list registry: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No test stations listed")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-11s %-30s %s\n", "SITE", "CODE", "NAME", "ADDRESS")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-10s %-11s %-30s %s, %s %s\n", e.SiteID, orDash(e.Code), e.Name, e.Street, e.Postcode, e.Place)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *StationAdapter) printApproval(approval *primary.SiteApproval) {
	fmt.Fprintf(a.out, "\nSite:    %s (%s)\n", approval.SiteID, approval.OrganisationID)
	fmt.Fprintf(a.out, "Status:  %s\n", StatusTag(approval.Status))
	fmt.Fprintf(a.out, "MPAV:    %s\n", StatusTag(approval.MPAV))
	fmt.Fprintf(a.out, "Hygiene: %s\n", StatusTag(approval.Hygiene))
	fmt.Fprintf(a.out, "Layout:  %s\n", StatusTag(approval.Layout))
	public := StatusTag(approval.Public)
	if approval.PublicReason != "" {
		public += " (" + approval.PublicReason + ")"
	}
	fmt.Fprintf(a.out, "Public:  %s\n", public)
	if approval.Advice != "" {
		fmt.Fprintf(a.out, "Advice:  %s\n", approval.Advice)
	}
}

func (a *StationAdapter) printResult(result *primary.ApprovalResult) {
	if result.Approval != nil {
		a.printApproval(result.Approval)
	}
	printMessages(a.out, result.Messages)
	if !result.Changed {
		fmt.Fprintln(a.out, grey.Sprint("(no changes)"))
	}
}
