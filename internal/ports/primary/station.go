package primary

import (
	"context"

	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/ports/secondary"
)

// StationService defines the primary port for test station approval and
// the public registry.
type StationService interface {
	// GetApproval returns the approval of a site, creating it with
	// defaults if it does not exist yet.
	GetApproval(ctx context.Context, siteID string) (*SiteApproval, error)

	// CheckIntegrity reports whether the approval of a site would be
	// overturned because its location changed since approval.
	CheckIntegrity(ctx context.Context, siteID string) (*IntegrityResult, error)

	// UpdateApproval re-evaluates the approval workflow of a site.
	// commissioned is looked up when nil.
	UpdateApproval(ctx context.Context, siteID string, commissioned *bool) (*ApprovalResult, error)

	// UpdateAll changes the listing of all sites of an organisation.
	// Returns the number of sites changed.
	UpdateAll(ctx context.Context, organisationID string, public siteapproval.Public, reasons ...siteapproval.PublicReason) (int, error)

	// UpdateApprovalHistory records the current approval status if it changed.
	UpdateApprovalHistory(ctx context.Context, siteID string) error

	// History returns the approval history of a site, newest first.
	History(ctx context.Context, siteID string) ([]*HistoryEntry, error)

	// SaveApproval applies a manual edit within the limits of the acting
	// user's form policy, then re-evaluates the workflow.
	SaveApproval(ctx context.Context, req SaveApprovalRequest) (*ApprovalResult, error)

	// UpdateLocation changes the address of a site and re-evaluates the
	// workflow.
	UpdateLocation(ctx context.Context, req UpdateLocationRequest) (*ApprovalResult, error)

	// ApprovalFormConfig returns the approval form policy for the acting user.
	ApprovalFormConfig(ctx context.Context, siteID string) (*siteapproval.FormPolicy, error)

	// AddFacilityCode generates a facility code if the site has none.
	// Returns the new code, or empty string if the site already had one.
	AddFacilityCode(ctx context.Context, siteID string) (string, error)

	// NotifyApprovalChange notifies the organisation administrators of a
	// site about the review status.
	NotifyApprovalChange(ctx context.Context, siteID string) error

	// PublicRegistry lists all test stations in the public registry.
	PublicRegistry(ctx context.Context) ([]secondary.RegistryEntry, error)
}

// SiteApproval is the approval of a site as exposed to drivers.
type SiteApproval struct {
	SiteID         string `json:"site_id"`
	OrganisationID string `json:"organisation_id"`
	Status         string `json:"status"`
	MPAV           string `json:"mpav"`
	Hygiene        string `json:"hygiene"`
	Layout         string `json:"layout"`
	Public         string `json:"public"`
	PublicReason   string `json:"public_reason,omitempty"`
	Advice         string `json:"advice,omitempty"`
}

// Messages are user-facing messages produced by an operation.
type Messages struct {
	Information string `json:"information,omitempty"`
	Flash       string `json:"flash,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

// ApprovalResult contains the outcome of an approval re-evaluation.
type ApprovalResult struct {
	Approval      *SiteApproval `json:"approval"`
	Changed       bool          `json:"changed"`
	PublicChanged bool          `json:"public_changed"`
	Notified      bool          `json:"notified"`
	Messages      Messages      `json:"messages"`
}

// IntegrityResult contains the outcome of an integrity check.
type IntegrityResult struct {
	SiteID     string `json:"site_id"`
	VHash      string `json:"vhash"`
	Intact     bool   `json:"intact"`
	Downgraded string `json:"downgraded_status,omitempty"`
}

// HistoryEntry is one entry of the approval history.
type HistoryEntry struct {
	Timestamp    string `json:"timestamp"`
	Status       string `json:"status"`
	MPAV         string `json:"mpav"`
	Hygiene      string `json:"hygiene"`
	Layout       string `json:"layout"`
	Public       string `json:"public"`
	PublicReason string `json:"public_reason,omitempty"`
	Advice       string `json:"advice,omitempty"`
}

// SaveApprovalRequest contains a manual approval edit. Nil fields are kept.
type SaveApprovalRequest struct {
	SiteID  string
	Status  *siteapproval.Status
	MPAV    *siteapproval.Review
	Hygiene *siteapproval.Review
	Layout  *siteapproval.Review
	Public  *siteapproval.Public
	Advice  *string
}

// UpdateLocationRequest contains a new site address.
type UpdateLocationRequest struct {
	SiteID   string
	Parent   string
	Street   string
	Postcode string
}
