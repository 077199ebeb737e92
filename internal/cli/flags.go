package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/ports/primary"
)

const dateLayout = "2006-01-02"

// optionalString returns the flag value if it was set on the command line.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

func parseDate(s string) (*time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

// commissionForm builds a commission form from the command flags. An
// empty --end clears the end date.
func commissionForm(cmd *cobra.Command, organisationID, commissionID string) (primary.CommissionForm, error) {
	form := primary.CommissionForm{
		OrganisationID: organisationID,
		CommissionID:   commissionID,
		StatusReason:   optionalString(cmd, "reason"),
		Comments:       optionalString(cmd, "comments"),
	}

	if s := optionalString(cmd, "date"); s != nil {
		date, err := parseDate(*s)
		if err != nil {
			return form, err
		}
		form.Date = date
	}

	if s := optionalString(cmd, "end"); s != nil {
		if *s == "" {
			form.ClearEndDate = true
		} else {
			end, err := parseDate(*s)
			if err != nil {
				return form, err
			}
			form.EndDate = end
		}
	}

	if s := optionalString(cmd, "status"); s != nil {
		status := commission.Status(*s)
		form.Status = &status
	}

	return form, nil
}

// approvalRequest builds a manual approval edit from the command flags.
func approvalRequest(cmd *cobra.Command, siteID string) primary.SaveApprovalRequest {
	req := primary.SaveApprovalRequest{
		SiteID: siteID,
		Advice: optionalString(cmd, "advice"),
	}
	if s := optionalString(cmd, "status"); s != nil {
		status := siteapproval.Status(*s)
		req.Status = &status
	}
	req.MPAV = optionalReview(cmd, "mpav")
	req.Hygiene = optionalReview(cmd, "hygiene")
	req.Layout = optionalReview(cmd, "layout")
	if s := optionalString(cmd, "public"); s != nil {
		public := siteapproval.Public(*s)
		req.Public = &public
	}
	return req
}

func optionalReview(cmd *cobra.Command, name string) *siteapproval.Review {
	s := optionalString(cmd, name)
	if s == nil {
		return nil
	}
	review := siteapproval.Review(*s)
	return &review
}
