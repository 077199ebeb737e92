// Package siteapproval contains the pure business logic for the review and
// approval of test stations and their listing in the public registry.
// This is part of the Functional Core - no I/O, only pure functions.
package siteapproval

// Status is the overall processing status of a site approval.
type Status string

const (
	StatusRevise   Status = "REVISE"
	StatusReady    Status = "READY"
	StatusReview   Status = "REVIEW"
	StatusApproved Status = "APPROVED"
)

// Valid reports whether s is a known processing status.
func (s Status) Valid() bool {
	switch s {
	case StatusRevise, StatusReady, StatusReview, StatusApproved:
		return true
	}
	return false
}

// Review is the status of a single review dimension.
type Review string

const (
	ReviewRevise   Review = "REVISE"
	ReviewReview   Review = "REVIEW"
	ReviewApproved Review = "APPROVED"
)

// Valid reports whether r is a known review status.
func (r Review) Valid() bool {
	switch r {
	case ReviewRevise, ReviewReview, ReviewApproved:
		return true
	}
	return false
}

// Public is the public-registry listing flag.
type Public string

const (
	PublicYes Public = "Y"
	PublicNo  Public = "N"
)

// Valid reports whether p is Y or N.
func (p Public) Valid() bool {
	return p == PublicYes || p == PublicNo
}

// PublicReason is the reason code for a site not being listed.
type PublicReason string

const (
	ReasonNone       PublicReason = ""
	ReasonNew        PublicReason = "NEW"        // new registration
	ReasonCommission PublicReason = "COMMISSION" // organisation not currently commissioned
	ReasonRevise     PublicReason = "REVISE"     // documentation incomplete
	ReasonReview     PublicReason = "REVIEW"     // review pending
	ReasonOverride   PublicReason = "OVERRIDE"   // de-listed manually
)

// Valid reports whether r is a known reason code (or none).
func (r PublicReason) Valid() bool {
	switch r {
	case ReasonNone, ReasonNew, ReasonCommission, ReasonRevise, ReasonReview, ReasonOverride:
		return true
	}
	return false
}

// Automatic reports whether the reason is set by the workflow itself
// (as opposed to a manual de-listing).
func (r PublicReason) Automatic() bool {
	switch r {
	case ReasonNew, ReasonCommission, ReasonRevise, ReasonReview:
		return true
	}
	return false
}

// Dimension names a review dimension.
type Dimension string

const (
	DimensionMPAV    Dimension = "mpav"
	DimensionHygiene Dimension = "hygiene"
	DimensionLayout  Dimension = "layout"
)

// Dimensions lists the review dimensions in evaluation order.
var Dimensions = []Dimension{DimensionMPAV, DimensionHygiene, DimensionLayout}

// Approval is the current approval state of one site.
type Approval struct {
	Status       Status
	MPAV         Review
	Hygiene      Review
	Layout       Review
	Public       Public
	PublicReason PublicReason
	Advice       string
	DHash        string
}

// Defaults returns the approval state of a newly registered site.
func Defaults() Approval {
	return Approval{
		Status:       StatusRevise,
		MPAV:         ReviewRevise,
		Hygiene:      ReviewRevise,
		Layout:       ReviewRevise,
		Public:       PublicNo,
		PublicReason: ReasonNew,
	}
}

// Review returns the value of a review dimension.
func (a Approval) Review(d Dimension) Review {
	switch d {
	case DimensionMPAV:
		return a.MPAV
	case DimensionHygiene:
		return a.Hygiene
	case DimensionLayout:
		return a.Layout
	}
	return ""
}

func (a *Approval) setReview(d Dimension, r Review) {
	switch d {
	case DimensionMPAV:
		a.MPAV = r
	case DimensionHygiene:
		a.Hygiene = r
	case DimensionLayout:
		a.Layout = r
	}
}

// AllReviews reports whether every dimension has the value r.
func (a Approval) AllReviews(r Review) bool {
	for _, d := range Dimensions {
		if a.Review(d) != r {
			return false
		}
	}
	return true
}

// AnyReview reports whether at least one dimension has the value r.
func (a Approval) AnyReview(r Review) bool {
	for _, d := range Dimensions {
		if a.Review(d) == r {
			return true
		}
	}
	return false
}

// FullyApproved reports whether the status and all dimensions are APPROVED.
func (a Approval) FullyApproved() bool {
	return a.Status == StatusApproved && a.AllReviews(ReviewApproved)
}

// SameStatus reports whether two approvals agree on all fields that
// constitute the recorded approval status (everything but the data hash).
func SameStatus(a, b Approval) bool {
	a.DHash, b.DHash = "", ""
	return a == b
}

// Update is a partial change of an approval. Nil fields are left as-is.
type Update struct {
	Status       *Status
	Reviews      map[Dimension]Review
	Public       *Public
	PublicReason *PublicReason
	DHash        *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Status == nil && len(u.Reviews) == 0 && u.Public == nil && u.PublicReason == nil && u.DHash == nil
}

func (u *Update) setStatus(s Status) { u.Status = &s }

func (u *Update) setPublic(p Public) { u.Public = &p }

func (u *Update) setReason(r PublicReason) { u.PublicReason = &r }

func (u *Update) setReview(d Dimension, r Review) {
	if u.Reviews == nil {
		u.Reviews = make(map[Dimension]Review, len(Dimensions))
	}
	u.Reviews[d] = r
}

// Apply returns a copy of a with the update applied.
func Apply(a Approval, u Update) Approval {
	if u.Status != nil {
		a.Status = *u.Status
	}
	for _, d := range Dimensions {
		if r, ok := u.Reviews[d]; ok {
			a.setReview(d, r)
		}
	}
	if u.Public != nil {
		a.Public = *u.Public
	}
	if u.PublicReason != nil {
		a.PublicReason = *u.PublicReason
	}
	if u.DHash != nil {
		a.DHash = *u.DHash
	}
	return a
}

// NormalizeOnSave fixes the public reason after a manual save: a site
// de-listed without reason counts as manually de-listed, and listed
// sites carry no reason.
func NormalizeOnSave(a Approval) Approval {
	switch a.Public {
	case PublicNo:
		if a.PublicReason == ReasonNone {
			a.PublicReason = ReasonOverride
		}
	case PublicYes:
		a.PublicReason = ReasonNone
	}
	return a
}

// EligibleForPublish reports whether a bulk listing for one of the given
// reasons may publish this site: it must be unlisted, fully approved, and
// unlisted for one of those reasons.
func EligibleForPublish(a Approval, reasons []PublicReason) bool {
	if a.Public == PublicYes || !a.FullyApproved() {
		return false
	}
	for _, r := range reasons {
		if r != ReasonNone && a.PublicReason == r {
			return true
		}
	}
	return false
}
