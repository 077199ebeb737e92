// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import (
	"context"
	"time"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/verification"
)

// ProviderService defines the primary port for provider verification and
// commissioning.
type ProviderService interface {
	// GetVerification returns the verification of an organisation,
	// creating it with type-driven defaults if it does not exist yet.
	GetVerification(ctx context.Context, organisationID string) (*Verification, error)

	// CheckManagerInfo evaluates the test station manager documentation
	// and applies the resulting staff tag changes.
	CheckManagerInfo(ctx context.Context, organisationID string) (verification.MgrInfoStatus, error)

	// UpdateVerification re-derives the verification status and suspends
	// or reinstates commissions accordingly.
	UpdateVerification(ctx context.Context, organisationID string) (*Verification, error)

	// SetOrgTypeStatus sets the organisation type verification (approvers only).
	SetOrgTypeStatus(ctx context.Context, req SetOrgTypeRequest) (*Verification, error)

	// SetOrganisationTypes replaces the organisation types and updates
	// the verification.
	SetOrganisationTypes(ctx context.Context, req SetOrganisationTypesRequest) (*Verification, error)

	// SetManagerDocuments sets the document review tags of a manager and
	// updates the verification.
	SetManagerDocuments(ctx context.Context, req ManagerDocumentsRequest) (*Verification, error)

	// UpdateManagerPerson changes the person data of a manager and
	// updates the verification.
	UpdateManagerPerson(ctx context.Context, req ManagerPersonRequest) (*Verification, error)

	// SuspendCommission suspends all current commissions of an organisation.
	SuspendCommission(ctx context.Context, organisationID string, reason commission.Reason) (int, error)

	// ReinstateCommission reinstates commissions suspended for reason.
	ReinstateCommission(ctx context.Context, organisationID string, reason commission.Reason) (int, error)

	// CurrentCommission returns the commission valid today, or nil.
	CurrentCommission(ctx context.Context, organisationID string) (*Commission, error)

	// ValidateCommission checks a commission form without saving it.
	ValidateCommission(ctx context.Context, form CommissionForm) (commission.FormErrors, error)

	// AcceptCommission applies the post-save corrections and cascades
	// of a saved commission.
	AcceptCommission(ctx context.Context, commissionID string) (*Commission, error)

	// CreateCommission validates, saves and accepts a new commission.
	// Validation failures are returned as commission.FormErrors.
	CreateCommission(ctx context.Context, form CommissionForm) (*Commission, error)

	// UpdateCommission validates, saves and accepts a commission change.
	// Validation failures are returned as commission.FormErrors.
	UpdateCommission(ctx context.Context, form CommissionForm) (*Commission, error)

	// ListCommissions lists the commissions of an organisation, newest first.
	ListCommissions(ctx context.Context, organisationID string) ([]*Commission, error)

	// ExpireCommissions expires all active commissions past their end date.
	// Returns the IDs of the expired commissions.
	ExpireCommissions(ctx context.Context) ([]string, error)

	// VerificationFormConfig returns the verification form policy for the
	// acting user.
	VerificationFormConfig(ctx context.Context, organisationID string) (*verification.FormPolicy, error)

	// CommissionFormConfig returns the commission form policy for the
	// acting user (commissionID empty for new commissions).
	CommissionFormConfig(ctx context.Context, organisationID, commissionID string) (*commission.FormPolicy, error)

	// AddDefaultTags adds the DELIVERY and OrgID tags if missing.
	// Returns the tags that were added.
	AddDefaultTags(ctx context.Context, organisationID string) (map[string]string, error)

	// NotifyCommissionChange notifies the organisation administrators of
	// a commission status change.
	NotifyCommissionChange(ctx context.Context, organisationID string, status commission.Status, reason commission.Reason) error
}

// Verification is the verification status of a provider.
type Verification struct {
	OrganisationID string `json:"organisation_id"`
	OrgType        string `json:"orgtype"`
	MgrInfo        string `json:"mgrinfo"`
	Accepted       bool   `json:"accepted"`
}

// Commission is a commission as exposed to drivers.
type Commission struct {
	ID             string `json:"id"`
	OrganisationID string `json:"organisation_id"`
	Date           string `json:"date"`
	EndDate        string `json:"end_date,omitempty"`
	Status         string `json:"status"`
	StatusDate     string `json:"status_date,omitempty"`
	StatusReason   string `json:"status_reason,omitempty"`
	Comments       string `json:"comments,omitempty"`
}

// SetOrgTypeRequest contains parameters for verifying the organisation type.
type SetOrgTypeRequest struct {
	OrganisationID string
	Status         verification.OrgTypeStatus
}

// SetOrganisationTypesRequest contains the new organisation types.
type SetOrganisationTypesRequest struct {
	OrganisationID string
	TypeIDs        []string
}

// ManagerDocumentsRequest contains document review tags for a manager.
type ManagerDocumentsRequest struct {
	StaffID   string
	Documents map[string]string // REGFORM|CRC|SCP -> APPROVED|REVISE|...
}

// ManagerPersonRequest contains changed person data of a manager.
// Nil fields are kept.
type ManagerPersonRequest struct {
	StaffID     string
	FirstName   *string
	LastName    *string
	DateOfBirth *string
}

// CommissionForm contains a submitted commission form. Nil fields were not
// submitted; ClearEndDate submits an empty end date.
type CommissionForm struct {
	CommissionID   string // empty for new commissions
	OrganisationID string
	Date           *time.Time
	EndDate        *time.Time
	ClearEndDate   bool
	Status         *commission.Status
	StatusReason   *string
	Comments       *string
}
