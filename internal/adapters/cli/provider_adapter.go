package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/verification"
	"github.com/nursix/gims/internal/ports/primary"
)

// ProviderAdapter translates CLI operations to ProviderService calls.
type ProviderAdapter struct {
	service primary.ProviderService
	out     io.Writer
}

// NewProviderAdapter creates a new ProviderAdapter with the given service.
func NewProviderAdapter(service primary.ProviderService, out io.Writer) *ProviderAdapter {
	return &ProviderAdapter{
		service: service,
		out:     out,
	}
}

// Show displays the verification and commissioning status of an organisation.
func (a *ProviderAdapter) Show(ctx context.Context, organisationID string) error {
	v, err := a.service.GetVerification(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("failed to get verification: %w", err)
	}
	a.printVerification(v)

	current, err := a.service.CurrentCommission(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("failed to get current commission: %w", err)
	}
	if current != nil {
		fmt.Fprintf(a.out, "Commission: %s (%s to %s)\n", current.ID, current.Date, orDash(current.EndDate))
	} else {
		fmt.Fprintf(a.out, "Commission: %s\n", grey.Sprint("none"))
	}
	fmt.Fprintln(a.out)
	return nil
}

// Refresh re-evaluates the verification of an organisation.
func (a *ProviderAdapter) Refresh(ctx context.Context, organisationID string) error {
	v, err := a.service.UpdateVerification(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Verification of %s updated\n", organisationID)
	a.printVerification(v)
	return nil
}

// SetTypes replaces the organisation types.
func (a *ProviderAdapter) SetTypes(ctx context.Context, organisationID string, typeIDs []string) error {
	v, err := a.service.SetOrganisationTypes(ctx, primary.SetOrganisationTypesRequest{
		OrganisationID: organisationID,
		TypeIDs:        typeIDs,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Organisation types of %s set\n", organisationID)
	a.printVerification(v)
	return nil
}

// VerifyType sets the organisation type verification.
func (a *ProviderAdapter) VerifyType(ctx context.Context, organisationID, status string) error {
	v, err := a.service.SetOrgTypeStatus(ctx, primary.SetOrgTypeRequest{
		OrganisationID: organisationID,
		Status:         verification.OrgTypeStatus(status),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Organisation type of %s set to %s\n", organisationID, StatusTag(v.OrgType))
	a.printVerification(v)
	return nil
}

// DefaultTags adds missing default tags to an organisation.
func (a *ProviderAdapter) DefaultTags(ctx context.Context, organisationID string) error {
	added, err := a.service.AddDefaultTags(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("failed to add default tags: %w", err)
	}
	if len(added) == 0 {
		fmt.Fprintln(a.out, "No tags added")
		return nil
	}
	for _, tag := range []string{"DELIVERY", "OrgID"} {
		if value, ok := added[tag]; ok {
			fmt.Fprintf(a.out, "✓ %s = %s\n", tag, value)
		}
	}
	return nil
}

// ManagerDocuments sets the document review tags of a manager.
func (a *ProviderAdapter) ManagerDocuments(ctx context.Context, staffID string, documents map[string]string) error {
	v, err := a.service.SetManagerDocuments(ctx, primary.ManagerDocumentsRequest{
		StaffID:   staffID,
		Documents: documents,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Documents of %s updated\n", staffID)
	a.printVerification(v)
	return nil
}

// ManagerPerson changes the person data of a manager.
func (a *ProviderAdapter) ManagerPerson(ctx context.Context, req primary.ManagerPersonRequest) error {
	v, err := a.service.UpdateManagerPerson(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Person data of %s updated\n", req.StaffID)
	a.printVerification(v)
	return nil
}

// CreateCommission creates a commission. Validation failures are printed
// and returned.
func (a *ProviderAdapter) CreateCommission(ctx context.Context, form primary.CommissionForm) error {
	c, err := a.service.CreateCommission(ctx, form)
	if err != nil {
		return a.formError(err)
	}
	fmt.Fprintf(a.out, "✓ Created commission %s (%s)\n", c.ID, StatusTag(c.Status))
	return nil
}

// UpdateCommission updates a commission. Validation failures are printed
// and returned.
func (a *ProviderAdapter) UpdateCommission(ctx context.Context, form primary.CommissionForm) error {
	c, err := a.service.UpdateCommission(ctx, form)
	if err != nil {
		return a.formError(err)
	}
	fmt.Fprintf(a.out, "✓ Commission %s updated (%s)\n", c.ID, StatusTag(c.Status))
	return nil
}

// ListCommissions lists the commissions of an organisation.
func (a *ProviderAdapter) ListCommissions(ctx context.Context, organisationID string) error {
	commissions, err := a.service.ListCommissions(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("failed to list commissions: %w", err)
	}

	if len(commissions) == 0 {
		fmt.Fprintln(a.out, "No commissions found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-11s %-11s %-10s %s\n", "ID", "DATE", "END", "STATUS", "REASON")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────")
	for _, c := range commissions {
		fmt.Fprintf(a.out, "%-10s %-11s %-11s %s %s\n", c.ID, c.Date, orDash(c.EndDate), statusCell(c.Status, 10), orDash(c.StatusReason))
	}
	fmt.Fprintln(a.out)
	return nil
}

// ExpireCommissions expires all commissions past their end date.
func (a *ProviderAdapter) ExpireCommissions(ctx context.Context) error {
	expired, err := a.service.ExpireCommissions(ctx)
	for _, id := range expired {
		fmt.Fprintf(a.out, "✓ Commission %s expired\n", id)
	}
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		fmt.Fprintln(a.out, "No commissions to expire")
	}
	return nil
}

func (a *ProviderAdapter) printVerification(v *primary.Verification) {
	fmt.Fprintf(a.out, "\nOrganisation: %s\n", v.OrganisationID)
	fmt.Fprintf(a.out, "Type:         %s\n", StatusTag(v.OrgType))
	fmt.Fprintf(a.out, "Managers:     %s\n", StatusTag(v.MgrInfo))
	if v.Accepted {
		fmt.Fprintf(a.out, "Verified:     %s\n", green.Sprint("yes"))
	} else {
		fmt.Fprintf(a.out, "Verified:     %s\n", red.Sprint("no"))
	}
}

func (a *ProviderAdapter) formError(err error) error {
	var errs commission.FormErrors
	if errors.As(err, &errs) {
		PrintFormErrors(a.out, errs)
	}
	return err
}
