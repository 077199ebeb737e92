// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/core/verification"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// OrganisationRepository defines the secondary port for organisation persistence.
type OrganisationRepository interface {
	// Create persists a new organisation.
	Create(ctx context.Context, org *OrganisationRecord) error

	// GetByID retrieves an organisation by its ID.
	GetByID(ctx context.Context, id string) (*OrganisationRecord, error)

	// List retrieves all organisations.
	List(ctx context.Context) ([]*OrganisationRecord, error)

	// GetNextID returns the next available organisation ID.
	GetNextID(ctx context.Context) (string, error)

	// GetTypeTags returns the organisation types of an organisation with
	// their tags {type_id: {tag: value}}.
	GetTypeTags(ctx context.Context, organisationID string) (map[string]map[string]string, error)

	// SetTypes replaces the organisation types of an organisation.
	SetTypes(ctx context.Context, organisationID string, typeIDs []string) error

	// GetTags returns the tags of an organisation {tag: value}.
	GetTags(ctx context.Context, organisationID string) (map[string]string, error)

	// AddTag adds a tag to an organisation.
	AddTag(ctx context.Context, organisationID, tag, value string) error
}

// OrganisationRecord represents an organisation as stored in persistence.
type OrganisationRecord struct {
	ID       string
	Name     string
	UUID     string
	OrgGroup string // organisation group name, empty if none
}

// VerificationRepository defines the secondary port for verification persistence.
type VerificationRepository interface {
	// Get retrieves the verification of an organisation (ErrNotFound if none).
	Get(ctx context.Context, organisationID string) (*VerificationRecord, error)

	// Create persists a new verification.
	Create(ctx context.Context, v *VerificationRecord) error

	// Update updates an existing verification.
	Update(ctx context.Context, v *VerificationRecord) error
}

// VerificationRecord represents a verification as stored in persistence.
type VerificationRecord struct {
	OrganisationID string
	DHash          string
	OrgType        verification.OrgTypeStatus
	MgrInfo        verification.MgrInfoStatus
	Accepted       bool
	UpdatedAt      time.Time
}

// CommissionRepository defines the secondary port for commission persistence.
type CommissionRepository interface {
	// Create persists a new commission.
	Create(ctx context.Context, c *CommissionRecord) error

	// GetByID retrieves a commission by its ID.
	GetByID(ctx context.Context, id string) (*CommissionRecord, error)

	// Update updates an existing commission.
	Update(ctx context.Context, c *CommissionRecord) error

	// List retrieves commissions matching the given filters, newest first.
	List(ctx context.Context, filters CommissionFilters) ([]*CommissionRecord, error)

	// GetNextID returns the next available commission ID.
	GetNextID(ctx context.Context) (string, error)

	// SuspendCurrent sets all CURRENT commissions of an organisation to
	// SUSPENDED with the given reason. Returns the number of rows changed.
	SuspendCurrent(ctx context.Context, organisationID string, reason commission.Reason, day time.Time) (int, error)

	// ReinstateSuspended sets all commissions of an organisation that were
	// SUSPENDED for the given reason back to CURRENT. Returns the number
	// of rows changed.
	ReinstateSuspended(ctx context.Context, organisationID string, reason commission.Reason, day time.Time) (int, error)
}

// CommissionRecord represents a commission as stored in persistence.
type CommissionRecord struct {
	ID             string
	OrganisationID string
	Date           time.Time
	EndDate        *time.Time
	Status         commission.Status
	PrevStatus     commission.Status
	StatusDate     *time.Time
	StatusReason   commission.Reason
	Comments       string
}

// Period returns the validity interval of the commission.
func (c *CommissionRecord) Period() commission.Period {
	return commission.Period{ID: c.ID, Status: c.Status, Start: c.Date, End: c.EndDate}
}

// CommissionFilters contains filter options for querying commissions.
type CommissionFilters struct {
	OrganisationID string
	Statuses       []commission.Status
	EndBefore      *time.Time // only commissions ending before this day
}

// StaffRepository defines the secondary port for test station manager data.
type StaffRepository interface {
	// ListManagers returns the active staff of an organisation that are
	// flagged as organisational contacts, with person data and tags.
	ListManagers(ctx context.Context, organisationID string) ([]*ManagerRecord, error)

	// GetManager retrieves a single manager by staff ID.
	GetManager(ctx context.Context, staffID string) (*ManagerRecord, error)

	// SetTags sets (inserts or updates) staff tags.
	SetTags(ctx context.Context, staffID string, tags map[string]string) error

	// DeleteTag removes a staff tag.
	DeleteTag(ctx context.Context, staffID, tag string) error

	// UpdatePerson updates the person data of a staff member.
	UpdatePerson(ctx context.Context, staffID string, person PersonData) error
}

// ManagerRecord represents a test station manager with their person data.
type ManagerRecord struct {
	StaffID        string
	PersonID       string
	OrganisationID string
	FirstName      string
	LastName       string
	DateOfBirth    string // YYYY-MM-DD, empty if unknown
	HasContact     bool
	Tags           map[string]string
}

// PersonData contains the editable person details of a manager.
type PersonData struct {
	FirstName   string
	LastName    string
	DateOfBirth string
}

// SiteRepository defines the secondary port for test station (facility) persistence.
type SiteRepository interface {
	// Create persists a new site.
	Create(ctx context.Context, site *SiteRecord) error

	// GetByID retrieves a site by its ID.
	GetByID(ctx context.Context, id string) (*SiteRecord, error)

	// List retrieves sites matching the given filters.
	List(ctx context.Context, filters SiteFilters) ([]*SiteRecord, error)

	// GetNextID returns the next available site ID.
	GetNextID(ctx context.Context) (string, error)

	// SetCode sets the facility code of a site.
	SetCode(ctx context.Context, siteID, code string) error

	// UpdateLocation updates the address of a site.
	UpdateLocation(ctx context.Context, siteID string, loc siteapproval.Location) error
}

// SiteRecord represents a site as stored in persistence.
type SiteRecord struct {
	ID             string
	OrganisationID string
	Name           string
	UUID           string
	Code           string
	Location       *siteapproval.Location // nil if the site has no location
}

// SiteFilters contains filter options for querying sites.
type SiteFilters struct {
	OrganisationID string
}

// SiteApprovalRepository defines the secondary port for site approvals and
// their history.
type SiteApprovalRepository interface {
	// Get retrieves the approval of a site (ErrNotFound if none).
	Get(ctx context.Context, siteID string) (*SiteApprovalRecord, error)

	// Create persists a new approval.
	Create(ctx context.Context, a *SiteApprovalRecord) error

	// Update updates an existing approval.
	Update(ctx context.Context, a *SiteApprovalRecord) error

	// SetVisibility changes the listing of all eligible approvals of an
	// organisation in one statement. Listing (Y) applies only to fully
	// approved sites unlisted for one of reasons, and clears the reason;
	// unlisting (N) stamps reasons[0]. Returns the IDs of the changed sites.
	SetVisibility(ctx context.Context, organisationID string, public siteapproval.Public, reasons []siteapproval.PublicReason) ([]string, error)

	// LastHistory returns the most recent history entry of a site
	// (ErrNotFound if none).
	LastHistory(ctx context.Context, siteID string) (*HistoryRecord, error)

	// AppendHistory adds a history entry.
	AppendHistory(ctx context.Context, h *HistoryRecord) error

	// ReplaceHistory overwrites an existing history entry.
	ReplaceHistory(ctx context.Context, h *HistoryRecord) error

	// ListHistory returns the history of a site, newest first.
	ListHistory(ctx context.Context, siteID string) ([]*HistoryRecord, error)

	// ListPublic returns the public registry.
	ListPublic(ctx context.Context) ([]RegistryEntry, error)
}

// SiteApprovalRecord represents a site approval as stored in persistence.
type SiteApprovalRecord struct {
	SiteID         string
	OrganisationID string
	Approval       siteapproval.Approval
}

// HistoryRecord is one entry of the site approval history.
type HistoryRecord struct {
	ID        int64
	SiteID    string
	Timestamp time.Time
	Approval  siteapproval.Approval
}

// RegistryEntry is one listed test station.
type RegistryEntry struct {
	SiteID           string `json:"site_id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	OrganisationID   string `json:"organisation_id"`
	OrganisationName string `json:"organisation"`
	Street           string `json:"street"`
	Postcode         string `json:"postcode"`
	Place            string `json:"place"`
}

// RequirementTexts provides explanation texts for notifications.
type RequirementTexts interface {
	// PostBody returns the body of a named CMS post (ErrNotFound if none).
	PostBody(ctx context.Context, name string) (string, error)
}

// ContactDirectory looks up e-mail addresses for notifications.
type ContactDirectory interface {
	// RoleEmails returns the e-mail addresses of all users holding role
	// for the organisation.
	RoleEmails(ctx context.Context, role, organisationID string) ([]string, error)
}
