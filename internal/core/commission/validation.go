package commission

import (
	"sort"
	"strings"
	"time"
)

// Form field names used in validation errors.
const (
	FieldDate         = "date"
	FieldEndDate      = "end_date"
	FieldStatus       = "status"
	FieldStatusReason = "status_reason"
)

// Validation messages.
const (
	MsgEndBeforeStart  = "End date must be after start date"
	MsgOverlap         = "Date interval overlaps existing commission"
	MsgNotVerified     = "Organisation not verified"
	MsgPastEndDate     = "Invalid status past end date"
	MsgReasonRequired  = "Reason required for suspended-status"
	MsgDateRequired    = "Start date required"
	MsgInvalidReason   = "Invalid status reason"
	minimumReasonChars = 3
)

// FormErrors maps form field names to user-correctable error messages.
type FormErrors map[string]string

// HasErrors reports whether any field has an error.
func (e FormErrors) HasErrors() bool {
	return len(e) > 0
}

func (e FormErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Submitted tells which fields were part of the submitted form.
type Submitted struct {
	Date         bool
	EndDate      bool
	Status       bool
	StatusReason bool
}

// ValidationInput contains the effective commission data (submitted values
// merged over stored values) plus context. All values are pre-fetched.
type ValidationInput struct {
	CommissionID string // empty for new commissions
	Date         time.Time
	EndDate      *time.Time
	Status       Status
	StatusReason string
	Submitted    Submitted
	Accepted     bool     // provider verification accepted
	Others       []Period // other commissions of the same organisation
	Today        time.Time
}

// Validate checks a commission form before it is saved.
//
// Rules, in order:
//   - new commissions need a start date, reasons must be known codes
//   - end date (if submitted) must be after the start date
//   - active commissions must not overlap other active commissions
//   - CURRENT requires accepted verification
//   - active statuses are invalid once the end date is reached
//   - SUSPENDED requires a reason (if a reason field was submitted)
//
// Overlap and date errors stop further checks.
func Validate(in ValidationInput) FormErrors {
	errs := FormErrors{}

	if in.CommissionID == "" && in.Date.IsZero() {
		errs[FieldDate] = MsgDateRequired
		return errs
	}
	if in.Submitted.StatusReason && !Reason(strings.TrimSpace(in.StatusReason)).Valid() {
		errs[FieldStatusReason] = MsgInvalidReason
		return errs
	}

	start := Day(in.Date)
	var end *time.Time
	if in.EndDate != nil {
		e := Day(*in.EndDate)
		end = &e
	}

	if in.Submitted.EndDate && !in.Date.IsZero() && end != nil && !end.After(start) {
		errs[FieldEndDate] = MsgEndBeforeStart
		return errs
	}

	if in.Status.Active() {
		p := Period{ID: in.CommissionID, Status: in.Status, Start: start, End: end}
		if OverlapsActive(p, in.Others) {
			if in.Submitted.Date {
				errs[FieldDate] = MsgOverlap
			}
			if in.Submitted.EndDate {
				errs[FieldEndDate] = MsgOverlap
			}
			if !in.Submitted.Date && !in.Submitted.EndDate {
				errs[FieldStatus] = MsgOverlap
			}
			return errs
		}
	}

	if in.Submitted.Status {
		if in.Status == StatusCurrent && !in.Accepted {
			errs[FieldStatus] = MsgNotVerified
		}

		today := Day(in.Today)
		if end != nil && !end.After(today) && in.Status.Active() {
			errs[FieldStatus] = MsgPastEndDate
			return errs
		}

		reason := strings.TrimSpace(in.StatusReason)
		if in.Status == StatusSuspended && in.Submitted.StatusReason && len(reason) < minimumReasonChars {
			errs[FieldStatusReason] = MsgReasonRequired
			return errs
		}
	}

	return errs
}
