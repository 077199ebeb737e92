package siteapproval

import "github.com/nursix/gims/internal/core/dhash"

// Location is the resolved address of a site, as far as it is subject
// to approval.
type Location struct {
	ID       string
	Parent   string
	Street   string
	Postcode string
}

// LocationHash computes the data hash over the approved site location.
// A nil location hashes like a location with all details missing.
func LocationHash(loc *Location) string {
	if loc == nil {
		return dhash.Compute("", "", "", "")
	}
	return dhash.Compute(loc.ID, loc.Parent, loc.Street, loc.Postcode)
}

// CheckIntegrity verifies that an approved site has not changed its
// location since approval. If it has (and the actor is not privileged),
// the approval is overturned: previously approved dimensions go back to
// REVIEW, the site is de-listed, and the status becomes REVIEW, or REVISE
// if any dimension is still under revision.
//
// Returns false if the approval is intact.
func CheckIntegrity(a Approval, vhash string, privileged bool) (Update, bool) {
	if a.Status != StatusApproved || a.DHash == "" || a.DHash == vhash || privileged {
		return Update{}, false
	}

	var u Update
	u.setPublic(PublicNo)

	status := StatusReview
	for _, d := range Dimensions {
		switch a.Review(d) {
		case ReviewApproved:
			u.setReview(d, ReviewReview)
		case ReviewRevise:
			status = StatusRevise
		}
	}
	u.setStatus(status)

	return u, true
}

// Workflow determines the status and listing updates that follow from the
// current review dimensions, and whether the site should be notified.
//
//	REVISE:   all APPROVED -> APPROVED, listed (notify)
//	          any REVIEW   -> REVIEW, unlisted
//	          otherwise    -> unlisted
//	READY:    -> REVIEW, unlisted; if all dimensions are APPROVED they are
//	          all reset to REVIEW, otherwise only REVISE dimensions are
//	REVIEW:   all APPROVED -> APPROVED, listed (notify)
//	          any REVIEW   -> unlisted
//	          any REVISE   -> REVISE, unlisted (notify)
//	APPROVED: any REVIEW   -> REVIEW, unlisted
//	          any REVISE   -> REVISE, unlisted (notify)
func Workflow(a Approval) (Update, bool) {
	var u Update
	notify := false

	switch a.Status {
	case StatusRevise:
		switch {
		case a.AllReviews(ReviewApproved):
			u.setPublic(PublicYes)
			u.setStatus(StatusApproved)
			notify = true
		case a.AnyReview(ReviewReview):
			u.setPublic(PublicNo)
			u.setStatus(StatusReview)
		default:
			u.setPublic(PublicNo)
		}

	case StatusReady:
		u.setPublic(PublicNo)
		if a.AllReviews(ReviewApproved) {
			for _, d := range Dimensions {
				u.setReview(d, ReviewReview)
			}
		} else {
			for _, d := range Dimensions {
				if a.Review(d) == ReviewRevise {
					u.setReview(d, ReviewReview)
				}
			}
		}
		u.setStatus(StatusReview)

	case StatusReview:
		switch {
		case a.AllReviews(ReviewApproved):
			u.setPublic(PublicYes)
			u.setStatus(StatusApproved)
			notify = true
		case a.AnyReview(ReviewReview):
			u.setPublic(PublicNo)
		case a.AnyReview(ReviewRevise):
			u.setPublic(PublicNo)
			u.setStatus(StatusRevise)
			notify = true
		}

	case StatusApproved:
		switch {
		case a.AnyReview(ReviewReview):
			u.setPublic(PublicNo)
			u.setStatus(StatusReview)
		case a.AnyReview(ReviewRevise):
			u.setPublic(PublicNo)
			u.setStatus(StatusRevise)
			notify = true
		}
	}

	return u, notify
}

// UpdateInput contains everything needed to re-evaluate a site approval.
// All values are pre-fetched by the caller.
type UpdateInput struct {
	Approval     Approval
	VHash        string // current location hash
	Privileged   bool   // actor may change details without losing approval
	Commissioned bool   // organisation holds a current commission
}

// UpdatePlan is the outcome of one approval re-evaluation.
type UpdatePlan struct {
	Update        Update
	Result        Approval // approval after the update
	Changed       bool     // anything needs to be written
	PublicChanged bool     // listing flipped
	Integrity     bool     // downgraded by the integrity check
	Notify        bool     // site administrator should be notified
}

// PlanUpdate runs one full approval re-evaluation.
//
// The integrity check takes precedence over the workflow. The resulting
// listing is then gated: de-listing records REVISE or REVIEW as reason,
// and listing requires a current commission (reason COMMISSION otherwise).
// A manual de-listing is never overridden. The data hash is kept only
// while the site is APPROVED.
func PlanUpdate(in UpdateInput) UpdatePlan {
	a := in.Approval

	u, integrity := CheckIntegrity(a, in.VHash, in.Privileged)
	notify := false
	if !integrity {
		u, notify = Workflow(a)
	}

	status := a.Status
	if u.Status != nil {
		status = *u.Status
	}

	switch {
	case u.Public != nil && *u.Public == PublicNo:
		if status == StatusRevise {
			u.setReason(ReasonRevise)
		} else {
			u.setReason(ReasonReview)
		}
	case u.Public != nil && *u.Public == PublicYes, u.Public == nil && a.Public == PublicYes:
		if in.Commissioned {
			u.setReason(ReasonNone)
		} else {
			u.setPublic(PublicNo)
			u.setReason(ReasonCommission)
		}
	}

	if a.Public == PublicNo && !a.PublicReason.Automatic() {
		u.Public = nil
		u.PublicReason = nil
	}

	publicChanged := u.Public != nil && *u.Public != a.Public

	hash := ""
	if status == StatusApproved {
		hash = in.VHash
	}
	u.DHash = &hash

	result := Apply(a, u)

	return UpdatePlan{
		Update:        u,
		Result:        result,
		Changed:       result != a,
		PublicChanged: publicChanged,
		Integrity:     integrity,
		Notify:        notify,
	}
}
