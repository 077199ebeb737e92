// Package commission contains the pure business logic for provider
// commissions (time-bounded authorizations to operate test stations).
// This is part of the Functional Core - no I/O, only pure functions.
package commission

import (
	"fmt"
	"time"
)

// Status represents the possible states of a commission.
type Status string

const (
	StatusCurrent   Status = "CURRENT"
	StatusSuspended Status = "SUSPENDED"
	StatusRevoked   Status = "REVOKED"
	StatusExpired   Status = "EXPIRED"
)

// Valid reports whether s is a known commission status.
func (s Status) Valid() bool {
	switch s {
	case StatusCurrent, StatusSuspended, StatusRevoked, StatusExpired:
		return true
	}
	return false
}

// Active reports whether the status counts towards the non-overlap rule.
func (s Status) Active() bool {
	return s == StatusCurrent || s == StatusSuspended
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusRevoked || s == StatusExpired
}

// Reason is the reason code for the current status.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNotVerified Reason = "N/V"      // verification pending
	ReasonOverride    Reason = "OVERRIDE" // set by administrator
)

// Valid reports whether r is a known reason code (or none).
func (r Reason) Valid() bool {
	switch r {
	case ReasonNone, ReasonNotVerified, ReasonOverride:
		return true
	}
	return false
}

// InitialStatus returns the status of a newly created commission.
func InitialStatus() Status {
	return StatusCurrent
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Period is the validity interval of a commission. A nil End is
// open-ended.
type Period struct {
	ID     string
	Status Status
	Start  time.Time
	End    *time.Time
}

// Overlaps reports whether the closed intervals of a and b intersect.
func Overlaps(a, b Period) bool {
	if b.End != nil && b.End.Before(a.Start) {
		return false
	}
	if a.End != nil && a.End.Before(b.Start) {
		return false
	}
	return true
}

// OverlapsActive reports whether p overlaps any other active commission.
func OverlapsActive(p Period, others []Period) bool {
	for _, o := range others {
		if o.ID != "" && o.ID == p.ID {
			continue
		}
		if o.Status.Active() && Overlaps(p, o) {
			return true
		}
	}
	return false
}

// IsCurrentOn reports whether p is CURRENT and valid on day.
func IsCurrentOn(p Period, day time.Time) bool {
	day = Day(day)
	if p.Status != StatusCurrent {
		return false
	}
	if !p.Start.IsZero() && Day(p.Start).After(day) {
		return false
	}
	if p.End != nil && Day(*p.End).Before(day) {
		return false
	}
	return true
}

// CurrentOf selects the current commission on day, preferring the most
// recent start date. Returns false if there is none.
func CurrentOf(periods []Period, day time.Time) (Period, bool) {
	var found Period
	ok := false
	for _, p := range periods {
		if !IsCurrentOn(p, day) {
			continue
		}
		if !ok || p.Start.After(found.Start) {
			found = p
			ok = true
		}
	}
	return found, ok
}

// GenerateCommissionID generates a commission ID from the current max number.
// The format is COMM-XXX where XXX is a zero-padded 3-digit number.
func GenerateCommissionID(currentMax int) string {
	return fmt.Sprintf("COMM-%03d", currentMax+1)
}

// ParseCommissionNumber extracts the numeric portion from a commission ID.
// Returns -1 if the ID format is invalid.
func ParseCommissionNumber(id string) int {
	var num int
	_, err := fmt.Sscanf(id, "COMM-%d", &num)
	if err != nil {
		return -1
	}
	return num
}
