// Package access defines the roles that drive the approval workflows.
// This is part of the Functional Core - no I/O, only pure functions.
package access

import (
	"fmt"
	"slices"
)

// Role is the caller's role in a workflow form.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleApprover  Role = "approver"
)

// Authorization roles, as assigned to user accounts.
const (
	AuthAdmin         = "ADMIN"
	AuthOrgGroupAdmin = "ORG_GROUP_ADMIN"
	AuthOrgAdmin      = "ORG_ADMIN"
)

// ParseRole validates a workflow role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleApplicant, RoleApprover:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid workflow role %q (expected applicant or approver)", s)
}

// IsPrivileged reports whether the given authorization roles may change
// approved data without resetting the approval (integrity override).
func IsPrivileged(authRoles []string) bool {
	return slices.Contains(authRoles, AuthAdmin) || slices.Contains(authRoles, AuthOrgGroupAdmin)
}

// ActsFor reports whether a user with role, member of memberOf, may
// change data of organisationID. Approvers act for every organisation,
// applicants only for the organisation they belong to.
func ActsFor(role Role, memberOf, organisationID string) bool {
	if role == RoleApprover {
		return true
	}
	return memberOf != "" && memberOf == organisationID
}
