package siteapproval

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

// FormPolicy describes field access to a site approval for one role.
type FormPolicy struct {
	StatusReadable bool
	StatusWritable bool
	StatusOptions  []Status
	ReviewReadable bool
	ReviewWritable bool
	PublicReadable bool
	PublicWritable bool
	AdviceReadable bool
	AdviceWritable bool
}

// ApprovalFormPolicy configures the approval form.
//
// Applicants see the processing status of an existing site; while it is
// REVISE they may set it to READY and see the review dimensions, while it
// is REVIEW they see the review dimensions read-only. Approvers read and
// write the review dimensions, the listing flag and the advice; the status
// itself is derived by the workflow and not shown to them.
func ApprovalFormPolicy(role access.Role, exists bool, current Status) FormPolicy {
	policy := FormPolicy{PublicReadable: true, AdviceReadable: true}

	if role == access.RoleApprover {
		policy.ReviewReadable = true
		policy.ReviewWritable = true
		policy.PublicWritable = true
		policy.AdviceWritable = true
		return policy
	}

	if exists {
		policy.StatusReadable = true
		switch current {
		case StatusRevise:
			policy.StatusWritable = true
			policy.StatusOptions = []Status{StatusRevise, StatusReady}
			policy.ReviewReadable = true
		case StatusReview:
			policy.ReviewReadable = true
		}
	}
	return policy
}

// Change is a requested manual edit of an approval. Nil fields are
// not being changed.
type Change struct {
	Status  *Status
	MPAV    *Review
	Hygiene *Review
	Layout  *Review
	Public  *Public
	Advice  *string
}

// Empty reports whether the change touches no field.
func (c Change) Empty() bool {
	return c.Status == nil && c.MPAV == nil && c.Hygiene == nil && c.Layout == nil && c.Public == nil && c.Advice == nil
}

// CheckScope evaluates whether a user may edit a site of organisationID.
// Applicants may only edit the sites of their own organisation.
func CheckScope(siteID, organisationID string, role access.Role, memberOf string) GuardResult {
	if !access.ActsFor(role, memberOf, organisationID) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("site %s belongs to another organisation", siteID),
		}
	}
	return GuardResult{Allowed: true}
}

// CheckWrite evaluates whether a change is permitted by the form policy.
func CheckWrite(siteID string, policy FormPolicy, change Change) GuardResult {
	deny := func(format string, args ...any) GuardResult {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("site %s: ", siteID) + fmt.Sprintf(format, args...)}
	}

	if change.Status != nil {
		if !policy.StatusWritable {
			return deny("processing status is not writable")
		}
		if !slices.Contains(policy.StatusOptions, *change.Status) {
			return deny("status %s cannot be selected", *change.Status)
		}
	}

	reviews := []struct {
		dim Dimension
		r   *Review
	}{
		{DimensionMPAV, change.MPAV},
		{DimensionHygiene, change.Hygiene},
		{DimensionLayout, change.Layout},
	}
	for _, rv := range reviews {
		if rv.r == nil {
			continue
		}
		if !policy.ReviewWritable {
			return deny("review %s is not writable", rv.dim)
		}
		if !rv.r.Valid() {
			return deny("invalid review status %q for %s", *rv.r, rv.dim)
		}
	}

	if change.Public != nil {
		if !policy.PublicWritable {
			return deny("public registry listing is not writable")
		}
		if !change.Public.Valid() {
			return deny("invalid listing value %q", *change.Public)
		}
	}

	if change.Advice != nil && !policy.AdviceWritable {
		return deny("advice is not writable")
	}

	return GuardResult{Allowed: true}
}

// ApplyChange returns a copy of a with a permitted change applied.
func ApplyChange(a Approval, change Change) Approval {
	if change.Status != nil {
		a.Status = *change.Status
	}
	if change.MPAV != nil {
		a.MPAV = *change.MPAV
	}
	if change.Hygiene != nil {
		a.Hygiene = *change.Hygiene
	}
	if change.Layout != nil {
		a.Layout = *change.Layout
	}
	if change.Public != nil {
		if *change.Public != a.Public {
			// listing flipped by hand, reason is set on save
			a.PublicReason = ReasonNone
		}
		a.Public = *change.Public
	}
	if change.Advice != nil {
		a.Advice = *change.Advice
	}
	return a
}
