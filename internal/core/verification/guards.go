package verification

import (
	"fmt"
	"slices"

	"github.com/nursix/gims/internal/core/access"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// SelectableOrgTypes are the org type statuses an approver can choose.
var SelectableOrgTypes = []OrgTypeStatus{OrgTypeNotVerified, OrgTypeVerified}

// SetOrgTypeContext provides context for the manual org type verification guard.
type SetOrgTypeContext struct {
	OrganisationID string
	Role           access.Role
	VerifReq       bool
	Current        OrgTypeStatus
	Requested      OrgTypeStatus
}

// CanSetOrgType evaluates whether the org type status can be set manually.
// Rules: approvers only; only when type verification is required; only
// between N/V and VERIFIED.
func CanSetOrgType(ctx SetOrgTypeContext) GuardResult {
	if ctx.Role != access.RoleApprover {
		return GuardResult{Allowed: false, Reason: "only approvers can verify the organisation type"}
	}
	if !ctx.VerifReq {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("organisation %s does not require type verification", ctx.OrganisationID),
		}
	}
	if !slices.Contains(SelectableOrgTypes, ctx.Current) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("type verification status %s cannot be changed manually", ctx.Current),
		}
	}
	if !slices.Contains(SelectableOrgTypes, ctx.Requested) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("invalid type verification status %q", ctx.Requested),
		}
	}
	return GuardResult{Allowed: true}
}

// FormPolicy describes field access for the verification form.
type FormPolicy struct {
	OrgTypeReadable bool
	OrgTypeWritable bool
	OrgTypeOptions  []OrgTypeStatus
	MgrInfoReadable bool
}

// VerificationFormPolicy configures the verification form for a role.
// Without an existing organisation nothing is shown.
func VerificationFormPolicy(role access.Role, exists bool, p Profile, current OrgTypeStatus) FormPolicy {
	if !exists {
		return FormPolicy{}
	}

	var policy FormPolicy
	if p.VerifReq() {
		policy.OrgTypeReadable = true
		if slices.Contains(SelectableOrgTypes, current) {
			policy.OrgTypeWritable = role == access.RoleApprover
			policy.OrgTypeOptions = slices.Clone(SelectableOrgTypes)
		}
	}
	// manager info is never manually writable
	policy.MgrInfoReadable = p.MinfoReq()

	return policy
}

// CanChangeTypes evaluates whether the organisation types can be changed.
func CanChangeTypes(organisationID string, role access.Role) GuardResult {
	if role != access.RoleApprover {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("only approvers can change the types of organisation %s", organisationID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanUpdate evaluates whether the verification of an organisation can be
// re-evaluated or its manager details edited by the user.
func CanUpdate(organisationID string, role access.Role, memberOf string) GuardResult {
	if !access.ActsFor(role, memberOf, organisationID) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("organisation %s is not the organisation of the acting user", organisationID),
		}
	}
	return GuardResult{Allowed: true}
}

// DocumentValues are the review values a manager document can take.
var DocumentValues = []string{"N/A", DocRevise, DocApproved}

// ReviewDocumentsContext provides context for the document review guard.
type ReviewDocumentsContext struct {
	StaffID   string
	Role      access.Role
	Documents map[string]string
}

// CanReviewDocuments evaluates whether manager documents can be reviewed.
// Only approvers review; tags and values must be known.
func CanReviewDocuments(ctx ReviewDocumentsContext) GuardResult {
	if ctx.Role != access.RoleApprover {
		return GuardResult{Allowed: false, Reason: "only approvers can review manager documents"}
	}
	if len(ctx.Documents) == 0 {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("no documents given for staff %s", ctx.StaffID)}
	}
	for _, tag := range DocumentTags {
		value, ok := ctx.Documents[tag]
		if ok && !slices.Contains(DocumentValues, value) {
			return GuardResult{Allowed: false, Reason: fmt.Sprintf("invalid review value %q for %s", value, tag)}
		}
	}
	for tag := range ctx.Documents {
		if !slices.Contains(DocumentTags, tag) {
			return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown document %q", tag)}
		}
	}
	return GuardResult{Allowed: true}
}
