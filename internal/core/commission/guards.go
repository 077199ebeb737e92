package commission

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

// CanTransition evaluates whether the commission state machine permits
// moving from one status to another.
//
//	CURRENT <-> SUSPENDED, CURRENT|SUSPENDED -> REVOKED|EXPIRED
//
// REVOKED and EXPIRED are terminal. Keeping the status is always allowed.
func CanTransition(from, to Status) GuardResult {
	if !to.Valid() {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("invalid commission status %q", to)}
	}
	if from == to {
		return GuardResult{Allowed: true}
	}

	switch from {
	case StatusCurrent, StatusSuspended:
		return GuardResult{Allowed: true}
	case StatusRevoked, StatusExpired:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot change commission status from %s (terminal)", from),
		}
	}
	return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown commission status %q", from)}
}

// SelectableStatuses returns the statuses an approver can choose for an
// active commission.
func SelectableStatuses(accepted bool) []Status {
	if accepted {
		return []Status{StatusCurrent, StatusSuspended, StatusRevoked}
	}
	return []Status{StatusSuspended, StatusRevoked}
}

// FormPolicy describes what the commission form permits.
type FormPolicy struct {
	Readable       bool
	Insertable     bool
	Editable       bool
	StatusWritable bool
	StatusOptions  []Status
}

// CommissionFormPolicy configures the commission form. Only approvers can
// create or edit commissions; creating requires accepted verification, and
// editing is restricted to active commissions. exists tells whether an
// existing commission is being edited, current is its status.
func CommissionFormPolicy(role access.Role, accepted, exists bool, current Status) FormPolicy {
	if role != access.RoleApprover {
		return FormPolicy{Readable: true}
	}

	policy := FormPolicy{Readable: true, Insertable: accepted, Editable: true}
	if exists {
		if current.Active() {
			policy.StatusWritable = true
			policy.StatusOptions = SelectableStatuses(accepted)
		} else {
			policy.Editable = false
		}
	}
	return policy
}

// EditContext provides context for the commission edit guard.
type EditContext struct {
	CommissionID string
	Policy       FormPolicy
	Current      Status
	Requested    Status // empty if status is not being changed
}

// CanEdit evaluates whether an existing commission may be updated.
func CanEdit(ctx EditContext) GuardResult {
	if !ctx.Policy.Editable {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("commission %s cannot be edited", ctx.CommissionID),
		}
	}
	if ctx.Requested == "" || ctx.Requested == ctx.Current {
		return GuardResult{Allowed: true}
	}
	if !ctx.Policy.StatusWritable || !slices.Contains(ctx.Policy.StatusOptions, ctx.Requested) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("status %s cannot be selected for commission %s", ctx.Requested, ctx.CommissionID),
		}
	}
	return CanTransition(ctx.Current, ctx.Requested)
}

// CanCreate evaluates whether a new commission may be created.
func CanCreate(organisationID string, policy FormPolicy) GuardResult {
	if !policy.Insertable {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot create commission for %s: approver role and accepted verification required", organisationID),
		}
	}
	return GuardResult{Allowed: true}
}
